// Package db provides storage back ends for air quality readings.
package db

import (
	"context"
	"time"

	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

// Database is implemented by back ends that store raw readings and serve the
// dashboard's queries.
type Database interface {
	Save(ctx context.Context, r measurement.Reading) error

	// ReadingsSince gets all readings with a timestamp greater than or equal
	// to startTime, as a map of device ID to readings ordered by timestamp.
	ReadingsSince(ctx context.Context, startTime time.Time) (map[string][]measurement.Reading, error)

	// ReadingsBetween is like ReadingsSince but bounded on both ends,
	// inclusive.
	ReadingsBetween(ctx context.Context, startTime time.Time, endTime time.Time) (map[string][]measurement.Reading, error)

	// Latest gets the most recent reading for each of the given device IDs.
	// Devices with no readings are absent from the returned map.
	Latest(ctx context.Context, deviceIDs []string) (map[string]measurement.Reading, error)
}
