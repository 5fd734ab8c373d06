package aggregate

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cristhianapaza/SistCalidadAire/aqi"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

func floatPtr(f float64) *float64 {
	return &f
}

func mkTime(day, hour, min int) time.Time {
	return time.Date(2024, time.March, day, hour, min, 0, 0, time.UTC)
}

// March 4 2024 is a Monday; March 10 is the Sunday ending that week.
var testReadings = []measurement.Reading{
	{Timestamp: mkTime(4, 10, 15), PM25: floatPtr(10)},    // AQI 42
	{Timestamp: mkTime(4, 10, 45), PM25: floatPtr(35.4)},  // AQI 100
	{Timestamp: mkTime(4, 11, 30), CO: floatPtr(5)},       // AQI 56
	{Timestamp: mkTime(5, 9, 0), PM25: floatPtr(10000)},   // out of range
	{Timestamp: mkTime(10, 23, 59), CO: floatPtr(2)},      // AQI 23
}

func TestTruncate(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 14, 42, 31, 0, time.UTC)

	cases := []struct {
		w    Window
		want time.Time
	}{
		{Hourly, time.Date(2024, time.March, 7, 14, 0, 0, 0, time.UTC)},
		{Daily, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{Weekly, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)},
		{Monthly, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		t.Run(c.w.String(), func(t *testing.T) {
			if got := Truncate(ts, c.w); !got.Equal(c.want) {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestTruncateWeeklyOnSunday(t *testing.T) {
	// A Sunday truncates back to the previous Monday, not forward.
	ts := time.Date(2024, time.March, 10, 5, 0, 0, 0, time.UTC)
	want := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if got := Truncate(ts, Weekly); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSummarizeDaily(t *testing.T) {
	want := []Summary{
		{
			Start:    mkTime(4, 0, 0),
			Count:    3,
			Means:    map[string]float64{"pm25": 22.7, "co": 5},
			Defined:  3,
			MeanAQI:  66,
			MaxAQI:   100,
			Category: aqi.Moderate,
		},
		{
			Start:    mkTime(5, 0, 0),
			Count:    1,
			Means:    map[string]float64{"pm25": 10000},
			Defined:  0,
			Category: aqi.OutOfRange,
		},
		{
			Start:    mkTime(10, 0, 0),
			Count:    1,
			Means:    map[string]float64{"co": 2},
			Defined:  1,
			MeanAQI:  23,
			MaxAQI:   23,
			Category: aqi.Good,
		},
	}

	got := Summarize(testReadings, Daily)
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestSummarizeHourly(t *testing.T) {
	got := Summarize(testReadings, Hourly)
	if len(got) != 4 {
		t.Fatalf("got %d summaries, want 4", len(got))
	}

	first := got[0]
	if !first.Start.Equal(mkTime(4, 10, 0)) {
		t.Errorf("first bucket starts at %v, want %v", first.Start, mkTime(4, 10, 0))
	}
	if first.Count != 2 || first.Defined != 2 {
		t.Errorf("first bucket count/defined = %d/%d, want 2/2", first.Count, first.Defined)
	}
	if first.MeanAQI != 71 || first.MaxAQI != 100 {
		t.Errorf("first bucket mean/max AQI = %v/%d, want 71/100", first.MeanAQI, first.MaxAQI)
	}
	if first.Category != aqi.Moderate {
		t.Errorf("first bucket category = %v, want %v", first.Category, aqi.Moderate)
	}
}

func TestSummarizeWeekly(t *testing.T) {
	got := Summarize(testReadings, Weekly)
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}

	s := got[0]
	if !s.Start.Equal(mkTime(4, 0, 0)) {
		t.Errorf("bucket starts at %v, want %v", s.Start, mkTime(4, 0, 0))
	}
	if s.Count != 5 || s.Defined != 4 {
		t.Errorf("count/defined = %d/%d, want 5/4", s.Count, s.Defined)
	}
	if s.MeanAQI != 55.25 || s.MaxAQI != 100 {
		t.Errorf("mean/max AQI = %v/%d, want 55.25/100", s.MeanAQI, s.MaxAQI)
	}
	if s.Category != aqi.Moderate {
		t.Errorf("category = %v, want %v", s.Category, aqi.Moderate)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil, Daily); len(got) != 0 {
		t.Errorf("got %d summaries, want 0", len(got))
	}
}

func TestByWeekday(t *testing.T) {
	want := map[time.Weekday]float64{
		time.Monday: 66,
		time.Sunday: 23,
	}

	got := ByWeekday(testReadings)
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestCategoryCounts(t *testing.T) {
	want := map[aqi.Severity]int{
		aqi.Good:       2,
		aqi.Moderate:   2,
		aqi.OutOfRange: 1,
	}

	got := CategoryCounts(testReadings)
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}
