package db

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/cristhianapaza/SistCalidadAire/aggregate"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const (
	readingMeasurement = "air_quality"
	rollupMeasurement  = "aqi_rollup"
)

func newInfluxDBPoints(d measurement.Derived) []*write.Point {
	vm := d.ValueMap()
	points := make([]*write.Point, 0, len(vm)+1)
	for name, v := range vm {
		p := influxdb2.NewPointWithMeasurement(readingMeasurement).AddField(name, v)
		points = append(points, p.AddTag("device", d.DeviceID).SetTime(d.Timestamp))
	}

	// The derived overall index gets its own field, tagged with the category
	// so alerts can match on it. An undefined index writes nothing.
	if d.AQI.Overall.Valid {
		p := influxdb2.NewPointWithMeasurement(readingMeasurement).
			AddField("aqi", float64(d.AQI.Overall.Index)).
			AddTag("device", d.DeviceID).
			AddTag("category", d.AQI.Overall.Category.String())
		points = append(points, p.SetTime(d.Timestamp))
	}

	return points
}

func newSummaryPoint(w aggregate.Window, s aggregate.Summary) *write.Point {
	p := influxdb2.NewPointWithMeasurement(rollupMeasurement).
		AddTag("window", w.String()).
		AddField("count", s.Count).
		AddField("defined", s.Defined).
		SetTime(s.Start)

	for name, v := range s.Means {
		p = p.AddField(fmt.Sprintf("mean_%s", name), v)
	}

	if s.Defined > 0 {
		p = p.AddField("mean_aqi", s.MeanAQI).
			AddField("max_aqi", s.MaxAQI).
			AddTag("category", s.Category.String())
	}

	return p
}

// InfluxDB mirrors readings and rollups to an InfluxDB 2.x bucket. It only
// implements the write side; the dashboard's queries go to the Datastore.
type InfluxDB struct {
	serverURL string
	token     string
	org       string
	bucket    string
}

func NewInfluxDB(serverURL, token, org, bucket string) *InfluxDB {
	return &InfluxDB{
		serverURL: serverURL,
		token:     token,
		org:       org,
		bucket:    bucket,
	}
}

func (db *InfluxDB) write(points []*write.Point) {
	client := influxdb2.NewClient(db.serverURL, db.token)
	defer client.Close()

	writeAPI := client.WriteAPI(db.org, db.bucket)
	for _, p := range points {
		writeAPI.WritePoint(p)
	}
	writeAPI.Flush()
}

// Save writes one point per field of the reading, plus the derived overall
// AQI when it is defined.
func (db *InfluxDB) Save(ctx context.Context, d measurement.Derived) error {
	db.write(newInfluxDBPoints(d))
	return nil
}

// SaveSummary writes one rollup point for an aggregation window.
func (db *InfluxDB) SaveSummary(ctx context.Context, w aggregate.Window, s aggregate.Summary) error {
	db.write([]*write.Point{newSummaryPoint(w, s)})
	return nil
}
