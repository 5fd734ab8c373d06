package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/aggregate"
	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const rollupTimeout = time.Minute

// rollupJob summarizes the previous full hour of readings and writes the
// result to InfluxDB. It satisfies cron.Job.
type rollupJob struct {
	database db.Database
	influx   *db.InfluxDB
}

func (j rollupJob) Run() {
	if j.influx == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rollupTimeout)
	defer cancel()

	end := time.Now().UTC().Truncate(time.Hour)
	start := end.Add(-time.Hour)

	byDevice, err := j.database.ReadingsBetween(ctx, start, end)
	if err != nil {
		log.WithError(err).Error("Rollup query failed")
		return
	}

	var readings []measurement.Reading
	for _, rs := range byDevice {
		readings = append(readings, rs...)
	}
	if len(readings) == 0 {
		log.Info("No readings to roll up")
		return
	}

	for _, s := range aggregate.Summarize(readings, aggregate.Hourly) {
		if err := j.influx.SaveSummary(ctx, aggregate.Hourly, s); err != nil {
			log.WithError(err).Error("Failed to write rollup")
			continue
		}

		log.WithFields(log.Fields{
			"start":    s.Start,
			"count":    s.Count,
			"mean_aqi": s.MeanAQI,
			"category": s.Category.String(),
		}).Info("Hourly rollup written")
	}
}
