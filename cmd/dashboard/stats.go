package main

import (
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

// Stats holds summary statistics for a set of readings, keyed by field name.
type Stats struct {
	Mean   map[string]float64
	StdDev map[string]float64
	Min    map[string]float64
	Max    map[string]float64
}

// summaryStats computes per-device summary statistics.
func summaryStats(readings map[string][]measurement.Reading) map[string]Stats {
	stats := make(map[string]Stats, len(readings))
	for id, rs := range readings {
		stats[id] = Stats{
			Mean:   measurement.Mean(rs),
			StdDev: measurement.StdDev(rs),
			Min:    measurement.Min(rs),
			Max:    measurement.Max(rs),
		}
	}
	return stats
}
