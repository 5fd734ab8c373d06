package db

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/cristhianapaza/SistCalidadAire/aggregate"
	"github.com/cristhianapaza/SistCalidadAire/aqi"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

var testTimestamp = time.Date(2018, time.March, 25, 0, 0, 0, 0, time.UTC)

func floatPtr(f float64) *float64 {
	return &f
}

func sortPoints(points []*write.Point) {
	// Sort by the key of the first field, which is brittle, but since we
	// only have one field per Point it works.
	sort.Slice(points, func(i, j int) bool {
		return points[i].FieldList()[0].Key < points[j].FieldList()[0].Key
	})
}

func TestNewInfluxDBPoints(t *testing.T) {
	cases := []struct {
		name string
		r    measurement.Reading
		want []*write.Point
	}{
		{
			name: "all_fields",
			r: measurement.Reading{
				DeviceID:  "foo",
				Timestamp: testTimestamp,
				PM25:      floatPtr(10),
				CO:        floatPtr(2),
				Temp:      floatPtr(18.5),
				Humidity:  floatPtr(55),
			},
			want: []*write.Point{
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddField("pm25", 10.0).SetTime(testTimestamp),
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddField("co", 2.0).SetTime(testTimestamp),
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddField("temp", 18.5).SetTime(testTimestamp),
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddField("humidity", 55.0).SetTime(testTimestamp),
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddTag("category", "Good").AddField("aqi", 42.0).SetTime(testTimestamp),
			},
		},
		{
			// An out-of-range reading still writes its raw fields but no
			// aqi point.
			name: "out_of_range",
			r: measurement.Reading{
				DeviceID:  "foo",
				Timestamp: testTimestamp,
				PM25:      floatPtr(10000),
			},
			want: []*write.Point{
				influxdb2.NewPointWithMeasurement("air_quality").AddTag("device", "foo").AddField("pm25", 10000.0).SetTime(testTimestamp),
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := newInfluxDBPoints(measurement.Derive(c.r))

			sortPoints(got)
			sortPoints(c.want)

			if diff := cmp.Diff(got, c.want, cmp.AllowUnexported(write.Point{})); diff != "" {
				t.Errorf("Unexpected result (-got +want):\n%s", diff)
			}
		})
	}
}

func TestNewSummaryPoint(t *testing.T) {
	s := aggregate.Summary{
		Start:    testTimestamp,
		Count:    3,
		Means:    map[string]float64{"pm25": 22.7},
		Defined:  2,
		MeanAQI:  71,
		MaxAQI:   100,
		Category: aqi.Moderate,
	}

	p := newSummaryPoint(aggregate.Hourly, s)

	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	wantTags := map[string]string{"window": "hourly", "category": "Moderate"}
	if diff := cmp.Diff(tags, wantTags); diff != "" {
		t.Errorf("Unexpected tags (-got +want):\n%s", diff)
	}

	fields := make(map[string]interface{})
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	wantFields := map[string]interface{}{
		"count":     int64(3),
		"defined":   int64(2),
		"mean_pm25": 22.7,
		"mean_aqi":  71.0,
		"max_aqi":   int64(100),
	}
	if diff := cmp.Diff(fields, wantFields); diff != "" {
		t.Errorf("Unexpected fields (-got +want):\n%s", diff)
	}

	if !p.Time().Equal(testTimestamp) {
		t.Errorf("point time = %v, want %v", p.Time(), testTimestamp)
	}
}
