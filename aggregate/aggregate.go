// Package aggregate groups readings into calendar windows and summarizes
// concentrations and derived AQI values per window. It consumes the AQI
// engine's per-reading output; readings whose overall index is undefined are
// excluded from AQI averages but still counted in the window.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cristhianapaza/SistCalidadAire/aqi"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

// Window is a calendar bucketing granularity.
type Window int

const (
	Hourly Window = iota
	Daily
	Weekly
	Monthly
)

func (w Window) String() string {
	switch w {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// Truncate returns the start of the window containing t, in UTC. Weeks start
// on Monday.
func Truncate(t time.Time, w Window) time.Time {
	t = t.UTC()
	switch w {
	case Hourly:
		return t.Truncate(time.Hour)
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		shift := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-shift, 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Summary describes one window of readings.
type Summary struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`

	// Means holds the mean of each numeric field present in the window's
	// readings, keyed by field name.
	Means map[string]float64 `json:"means"`

	// Defined is the number of readings in the window with a defined overall
	// index. MeanAQI and MaxAQI cover only those readings; when Defined is
	// zero both are zero and Category is OutOfRange.
	Defined  int          `json:"defined"`
	MeanAQI  float64      `json:"mean_aqi"`
	MaxAQI   int          `json:"max_aqi"`
	Category aqi.Severity `json:"category"`
}

// Summarize buckets the readings by window and returns one Summary per
// non-empty bucket, ordered by bucket start. The category of each summary is
// the mean AQI reclassified against the general severity bands, mirroring
// how a single combined index is classified.
func Summarize(readings []measurement.Reading, w Window) []Summary {
	buckets := make(map[time.Time][]measurement.Reading)
	for _, r := range readings {
		start := Truncate(r.Timestamp, w)
		buckets[start] = append(buckets[start], r)
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	summaries := make([]Summary, 0, len(starts))
	for _, start := range starts {
		rs := buckets[start]

		s := Summary{
			Start:    start,
			Count:    len(rs),
			Means:    measurement.Mean(rs),
			Category: aqi.OutOfRange,
		}

		sum := 0
		for _, r := range rs {
			overall := measurement.Derive(r).AQI.Overall
			if !overall.Valid {
				continue
			}

			sum += overall.Index
			if s.Defined == 0 || overall.Index > s.MaxAQI {
				s.MaxAQI = overall.Index
			}
			s.Defined++
		}

		if s.Defined > 0 {
			s.MeanAQI = float64(sum) / float64(s.Defined)
			s.Category = aqi.Classify(int(math.Round(s.MeanAQI)))
		}

		summaries = append(summaries, s)
	}

	return summaries
}

// ByWeekday returns the mean overall AQI for each weekday with at least one
// reading carrying a defined index.
func ByWeekday(readings []measurement.Reading) map[time.Weekday]float64 {
	sums := make(map[time.Weekday]int)
	counts := make(map[time.Weekday]int)
	for _, r := range readings {
		overall := measurement.Derive(r).AQI.Overall
		if !overall.Valid {
			continue
		}

		day := r.Timestamp.UTC().Weekday()
		sums[day] += overall.Index
		counts[day]++
	}

	means := make(map[time.Weekday]float64)
	for day, sum := range sums {
		means[day] = float64(sum) / float64(counts[day])
	}

	return means
}

// CategoryCounts returns how many readings fall into each overall severity
// category. Readings with no defined index count toward OutOfRange.
func CategoryCounts(readings []measurement.Reading) map[aqi.Severity]int {
	counts := make(map[aqi.Severity]int)
	for _, r := range readings {
		counts[measurement.Derive(r).AQI.Overall.Category]++
	}
	return counts
}
