package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/aggregate"
	"github.com/cristhianapaza/SistCalidadAire/aqi"
	"github.com/cristhianapaza/SistCalidadAire/cache"
	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const (
	recentCount = 10

	// How long the default page view may be served from cache.
	queryTTL = time.Minute
)

// severityOrder is the display order of category counts, least to most
// severe, with out-of-range readings last.
var severityOrder = []aqi.Severity{
	aqi.Good,
	aqi.Moderate,
	aqi.UnhealthyForSensitive,
	aqi.Unhealthy,
	aqi.VeryUnhealthy,
	aqi.Hazardous,
	aqi.OutOfRange,
}

// rootHandler renders the page for the root URL: the readings plot, summary
// stats, latest AQI per device, recent readings, and period summaries.
type rootHandler struct {
	DeviceIDs         []string
	DefaultDisplayAge time.Duration
	Database          db.Database
	Template          *template.Template
	Queries           *cache.Cache[map[string][]measurement.Reading]
}

func (h rootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Ensure that we only serve the root.
	// From https://golang.org/pkg/net/http/#ServeMux:
	//   Note that since a pattern ending in a slash names a rooted subtree, the
	//   pattern "/" matches all paths not matched by other registered patterns,
	//   not just the URL with Path == "/".
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()

	hoursAgo := int(h.DefaultDisplayAge.Round(time.Hour).Hours())
	endTime := time.Now().UTC()
	startTime := endTime.Add(-time.Duration(hoursAgo) * time.Hour)

	// These control which HTML forms are auto-filled when the page loads, to
	// reflect the data that is being displayed
	fillRangeForm := false
	fillHoursAgoForm := true

	// Only the default view is cacheable; form submissions query directly.
	cacheable := r.Method != "POST"

	if r.Method == "POST" {
		switch formName := r.FormValue("form-name"); formName {
		case "range":
			var err error
			startTime, err = time.Parse(time.RFC3339Nano, r.FormValue("startdate-adjusted"))
			if err != nil {
				http.Error(w, fmt.Sprintf("Bad start time: %v", err), http.StatusBadRequest)
				return
			}

			endTime, err = time.Parse(time.RFC3339Nano, r.FormValue("enddate-adjusted"))
			if err != nil {
				http.Error(w, fmt.Sprintf("Bad end time: %v", err), http.StatusBadRequest)
				return
			}

			fillRangeForm = true
			fillHoursAgoForm = false
		case "hoursago":
			var err error
			hoursAgo, err = strconv.Atoi(r.FormValue("hoursago"))
			if err != nil {
				http.Error(w, fmt.Sprintf("%v", err), http.StatusBadRequest)
				return
			}

			if hoursAgo < 1 {
				http.Error(w, "Hours ago must be >= 1", http.StatusBadRequest)
				return
			}

			endTime = time.Now().UTC()
			startTime = endTime.Add(-time.Duration(hoursAgo) * time.Hour)

			fillRangeForm = false
			fillHoursAgoForm = true
		default:
			http.Error(w, "Unknown form name", http.StatusBadRequest)
			return
		}
	}

	readings, err := h.getReadings(ctx, startTime, endTime, cacheable)
	if err != nil {
		log.WithError(err).Error("Error fetching data")
	}

	var flat []measurement.Reading
	for _, rs := range readings {
		flat = append(flat, rs...)
	}

	var wg sync.WaitGroup

	jsonBytes := []byte{}
	var stats map[string]Stats
	if err == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var jsonErr error
			jsonBytes, jsonErr = measurement.ReadingMapToJSON(readings)
			if jsonErr != nil {
				log.WithError(jsonErr).Error("Error marshaling readings to JSON")
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			stats = summaryStats(readings)
		}()
	}

	// Get the latest reading for each device
	var latest map[string]measurement.Derived
	var latestErr error
	wg.Add(1)
	go func() {
		defer wg.Done()

		raw, err := h.Database.Latest(ctx, h.DeviceIDs)
		if err != nil {
			latestErr = err
			log.WithError(err).Error("Error getting latest readings")
			return
		}

		latest = make(map[string]measurement.Derived, len(raw))
		for id, r := range raw {
			latest[id] = measurement.Derive(r)
		}
	}()

	wg.Wait()

	data := struct {
		Readings         template.JS
		Stats            map[string]Stats
		Error            error
		StartTime        time.Time
		EndTime          time.Time
		HoursAgo         int
		FillRangeForm    bool
		FillHoursAgoForm bool
		Latest           map[string]measurement.Derived
		LatestError      error
		Recent           []measurement.Derived
		Categories       map[aqi.Severity]int
		SeverityOrder    []aqi.Severity
		Daily            []aggregate.Summary
		Weekly           []aggregate.Summary
		Monthly          []aggregate.Summary
		Weekdays         map[time.Weekday]float64
	}{
		Readings:         template.JS(jsonBytes),
		Stats:            stats,
		Error:            err,
		StartTime:        startTime,
		EndTime:          endTime,
		HoursAgo:         hoursAgo,
		FillRangeForm:    fillRangeForm,
		FillHoursAgoForm: fillHoursAgoForm,
		Latest:           latest,
		LatestError:      latestErr,
		Recent:           recentReadings(readings, recentCount),
		Categories:       aggregate.CategoryCounts(flat),
		SeverityOrder:    severityOrder,
		Daily:            aggregate.Summarize(flat, aggregate.Daily),
		Weekly:           aggregate.Summarize(flat, aggregate.Weekly),
		Monthly:          aggregate.Summarize(flat, aggregate.Monthly),
		Weekdays:         aggregate.ByWeekday(flat),
	}

	if err := h.Template.ExecuteTemplate(w, "index", data); err != nil {
		log.WithError(err).Error("Could not execute template")
	}
}

func (h rootHandler) getReadings(ctx context.Context, startTime, endTime time.Time, cacheable bool) (map[string][]measurement.Reading, error) {
	const cacheKey = "default-view"

	if cacheable {
		if readings, ok := h.Queries.Get(cacheKey); ok {
			return readings, nil
		}
	}

	readings, err := h.Database.ReadingsBetween(ctx, startTime, endTime)
	if err != nil {
		return nil, err
	}

	if cacheable {
		h.Queries.Set(cacheKey, readings, queryTTL)
	}
	return readings, nil
}

// recentReadings returns the newest n readings across all devices, newest
// first, with their derived AQI attached.
func recentReadings(readings map[string][]measurement.Reading, n int) []measurement.Derived {
	var all []measurement.Reading
	for _, rs := range readings {
		all = append(all, rs...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	if len(all) > n {
		all = all[:n]
	}

	recent := make([]measurement.Derived, len(all))
	for i, r := range all {
		recent[i] = measurement.Derive(r)
	}
	return recent
}
