package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestLineToReading(t *testing.T) {
	cases := []struct {
		name string
		line []string
		want measurement.Reading
	}{
		{
			"all_fields",
			[]string{"2018-03-25T00:00:00", "10.0", "20.0", "2.0", "18.5", "55.0"},
			measurement.Reading{
				DeviceID:  "foo",
				Timestamp: time.Date(2018, time.March, 25, 0, 0, 0, 0, time.UTC),
				PM25:      floatPtr(10.0),
				PM10:      floatPtr(20.0),
				CO:        floatPtr(2.0),
				Temp:      floatPtr(18.5),
				Humidity:  floatPtr(55.0),
			},
		},
		{
			"empty_values",
			[]string{"2018-03-25T00:00:00", "10.0", "", "", "", ""},
			measurement.Reading{
				DeviceID:  "foo",
				Timestamp: time.Date(2018, time.March, 25, 0, 0, 0, 0, time.UTC),
				PM25:      floatPtr(10.0),
			},
		},
		{
			"whitespace_values",
			[]string{"2018-03-25T00:00:00", " 10.0 ", "  ", "", "", ""},
			measurement.Reading{
				DeviceID:  "foo",
				Timestamp: time.Date(2018, time.March, 25, 0, 0, 0, 0, time.UTC),
				PM25:      floatPtr(10.0),
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := lineToReading(c.line, "foo")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("Reading mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestLineToReadingInvalid(t *testing.T) {
	cases := []struct {
		name string
		line []string
	}{
		{"empty", []string{}},
		{"too_short", []string{"2018-03-25T00:00:00", "10.0"}},
		{"too_long", []string{"2018-03-25T00:00:00", "10.0", "", "", "", "", ""}},
		{"bad_timestamp", []string{"yesterday", "10.0", "", "", "", ""}},
		{"bad_value", []string{"2018-03-25T00:00:00", "spam", "", "", "", ""}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := lineToReading(c.line, "foo"); err == nil {
				t.Error("Expected error on invalid input, but error is nil")
			}
		})
	}
}
