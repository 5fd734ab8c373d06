package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	readingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "airquality_readings_total",
		Help: "Total readings ingested, by device.",
	}, []string{"device"})

	decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airquality_decode_errors_total",
		Help: "Total telemetry payloads that failed to decode.",
	})

	outOfRangeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "airquality_out_of_range_total",
		Help: "Total per-pollutant concentrations outside the breakpoint tables.",
	}, []string{"pollutant"})

	saveErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "airquality_save_errors_total",
		Help: "Total storage failures, by back end.",
	}, []string{"backend"})

	latestAQI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "airquality_latest_aqi",
		Help: "Overall AQI of the most recent reading, by device.",
	}, []string{"device"})
)

func init() {
	prometheus.MustRegister(
		readingsTotal,
		decodeErrors,
		outOfRangeTotal,
		saveErrors,
		latestAQI,
	)
}
