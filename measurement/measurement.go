// Package measurement defines the composite sensor reading consumed by the
// AQI engine and the storage back ends.
package measurement

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cristhianapaza/SistCalidadAire/aqi"
)

// Used for separating substrings in database and cache keys. The octothorpe is
// fine for this because device IDs and timestamps, the two things most likely
// to be used in keys, can't contain it.
const keySep = "#"

// Reading is one timestamped sensor sample: a concentration per monitored
// pollutant plus ambient temperature and humidity. Pollutant fields are
// pointers so that a sensor that doesn't report a pollutant simply leaves it
// nil; nil fields are excluded from AQI combination and from stats. A Reading
// is built once per input row and never mutated.
type Reading struct {
	DeviceID  string    `json:"device_id,omitempty" datastore:"device_id"`
	Timestamp time.Time `json:"timestamp" datastore:"timestamp"`
	PM25      *float64  `json:"pm25,omitempty" datastore:"pm25,omitempty"`
	PM10      *float64  `json:"pm10,omitempty" datastore:"pm10,omitempty"`
	CO        *float64  `json:"co,omitempty" datastore:"co,omitempty"`
	Temp      *float64  `json:"temp,omitempty" datastore:"temp,omitempty"`
	Humidity  *float64  `json:"humidity,omitempty" datastore:"humidity,omitempty"`
}

// Concentrations returns the pollutant concentrations present in the reading,
// in the form the AQI combiner consumes. Temperature and humidity are ambient
// variables, not pollutants, so they are not included.
func (r *Reading) Concentrations() map[aqi.Pollutant]float64 {
	c := make(map[aqi.Pollutant]float64)
	if r.PM25 != nil {
		c[aqi.PM25] = *r.PM25
	}
	if r.PM10 != nil {
		c[aqi.PM10] = *r.PM10
	}
	if r.CO != nil {
		c[aqi.CO] = *r.CO
	}
	return c
}

// ValueMap returns all numeric fields present in the reading, keyed by field
// name. It's used by the stats functions and the InfluxDB back end.
func (r *Reading) ValueMap() map[string]float64 {
	vals := make(map[string]float64)
	if r.PM25 != nil {
		vals["pm25"] = *r.PM25
	}
	if r.PM10 != nil {
		vals["pm10"] = *r.PM10
	}
	if r.CO != nil {
		vals["co"] = *r.CO
	}
	if r.Temp != nil {
		vals["temp"] = *r.Temp
	}
	if r.Humidity != nil {
		vals["humidity"] = *r.Humidity
	}
	return vals
}

// DBKey returns a string key suitable for Datastore. It promotes device ID and
// timestamp into the key.
func (r *Reading) DBKey() string {
	return strings.Join([]string{r.DeviceID, r.Timestamp.Format(time.RFC3339)}, keySep)
}

func (r Reading) String() string {
	parts := []string{r.DeviceID}
	if r.PM25 != nil {
		parts = append(parts, fmt.Sprintf("pm2.5=%.1fµg/m³", *r.PM25))
	}
	if r.PM10 != nil {
		parts = append(parts, fmt.Sprintf("pm10=%.1fµg/m³", *r.PM10))
	}
	if r.CO != nil {
		parts = append(parts, fmt.Sprintf("co=%.1fppm", *r.CO))
	}
	if r.Temp != nil {
		parts = append(parts, fmt.Sprintf("%.1f°C", *r.Temp))
	}
	if r.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%.1f%%RH", *r.Humidity))
	}
	parts = append(parts, r.Timestamp.Format(time.RFC3339))

	return strings.Join(parts, " ")
}

// Derived pairs a Reading with the AQI result computed from it. The embedded
// Reading is the original, untouched sample.
type Derived struct {
	Reading
	AQI aqi.CompositeResult `json:"aqi"`
}

// Derive runs the AQI combiner on the reading's pollutant concentrations and
// attaches the result. The reading itself is not modified.
func Derive(r Reading) Derived {
	return Derived{
		Reading: r,
		AQI:     aqi.Combine(r.Concentrations()),
	}
}

// CacheKeyLatest returns the cache key of the latest reading for the given
// device ID.
func CacheKeyLatest(deviceID string) string {
	return strings.Join([]string{deviceID, "latest"}, keySep)
}

// serializableReading is a slim record for plotting: just an epoch-millis
// timestamp, the raw fields, and the derived overall index. The index is
// omitted entirely when it's undefined so the frontend shows a gap rather
// than a bogus zero.
type serializableReading struct {
	// This timestamp is an offset from the epoch in milliseconds
	// (compare to Timestamp in Reading).
	Timestamp int64    `json:"timestamp"`
	PM25      *float64 `json:"pm25,omitempty"`
	PM10      *float64 `json:"pm10,omitempty"`
	CO        *float64 `json:"co,omitempty"`
	Temp      *float64 `json:"temp,omitempty"`
	Humidity  *float64 `json:"humidity,omitempty"`
	AQI       *int     `json:"aqi,omitempty"`
}

// ReadingMapToJSON converts a string -> []Reading map into a marshaled JSON
// array for use in the template. The JSON is an array with one element for
// each device ID. It's constructed this way, instead of as a map where keys
// are device IDs, because the JavaScript visualization package D3
// (https://d3js.org/) works better with arrays of data than maps.
func ReadingMapToJSON(readings map[string][]Reading) ([]byte, error) {
	type dataForTemplate struct {
		ID     string                `json:"id"`
		Values []serializableReading `json:"values"`
	}

	// Sort the map's keys so that the resulting JSON always has them in the
	// same order. This ensures that e.g. the color assigned to each line on a
	// plot is the same for every page load.
	keys := make([]string, len(readings))
	i := 0
	for k := range readings {
		keys[i] = k
		i++
	}
	sort.Strings(keys)

	var data []dataForTemplate
	for _, k := range keys {
		vals := make([]serializableReading, len(readings[k]))
		for i, r := range readings[k] {
			s := serializableReading{
				Timestamp: r.Timestamp.Unix() * 1000,
				PM25:      r.PM25,
				PM10:      r.PM10,
				CO:        r.CO,
				Temp:      r.Temp,
				Humidity:  r.Humidity,
			}
			if overall := Derive(r).AQI.Overall; overall.Valid {
				index := overall.Index
				s.AQI = &index
			}
			vals[i] = s
		}
		data = append(data, dataForTemplate{k, vals})
	}
	return json.Marshal(data)
}
