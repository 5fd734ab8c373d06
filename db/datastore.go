package db

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/cristhianapaza/SistCalidadAire/cache"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const (
	datastoreKind = "reading"

	// Datastore queries are limited to this many entities, and multiple
	// queries are made to fetch all results.
	queryLimit = 1000

	// How long a device's latest reading stays cached before Latest goes
	// back to the Datastore.
	latestTTL = 5 * time.Minute
)

type datastoreDB struct {
	projectID string
	client    *datastore.Client
	latest    *cache.Cache[measurement.Reading]
}

func NewDatastoreDB(projectID string) (*datastoreDB, error) {
	client, err := datastore.NewClient(context.Background(), projectID)
	if err != nil {
		return nil, err
	}

	return &datastoreDB{
		projectID: projectID,
		client:    client,
		latest:    cache.New[measurement.Reading](),
	}, nil
}

// Save saves the given Reading to the database. If the Reading already
// exists in the database it makes no change to the database and returns nil
// as the error.
func (db *datastoreDB) Save(ctx context.Context, r measurement.Reading) error {
	key := datastore.NameKey(datastoreKind, r.DBKey(), nil)

	// Only store the reading if it doesn't exist
	_, err := db.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var x measurement.Reading
		if err := tx.Get(key, &x); err != datastore.ErrNoSuchEntity {
			return err
		}

		_, err := tx.Put(key, &r)
		return err
	})

	// Each device has a cache entry for its latest value. Update it.
	if err == nil {
		db.latest.Set(measurement.CacheKeyLatest(r.DeviceID), r, latestTTL)
	}

	return err
}

func (db *datastoreDB) executeQuery(ctx context.Context, q *datastore.Query) (map[string][]measurement.Reading, error) {
	results := make(map[string][]measurement.Reading)

	// Don't modify the original query. We'll continue to derive queries from
	// it using a cursor to break apart the whole query into multiple smaller
	// ones.
	derivedQuery := q.Limit(queryLimit)

	for {
		processed := 0

		it := db.client.Run(ctx, derivedQuery)
		for {
			var r measurement.Reading
			_, err := it.Next(&r)
			if err == iterator.Done {
				cursor, err := it.Cursor()
				if err != nil {
					return make(map[string][]measurement.Reading), err
				}

				// The current query finished, so make a new one that starts
				// where it left off.
				derivedQuery = q.Start(cursor).Limit(queryLimit)
				break
			} else if err != nil {
				return make(map[string][]measurement.Reading), err
			}

			results[r.DeviceID] = append(results[r.DeviceID], r)

			processed++
		}

		if processed < queryLimit {
			// The last query returned fewer results than the limit, meaning
			// that a subsequent query would return nothing, so we're done.
			break
		}
	}

	return results, nil
}

func (db *datastoreDB) ReadingsSince(ctx context.Context, startTime time.Time) (map[string][]measurement.Reading, error) {
	// Don't need to filter by device ID here because building the map
	// has the effect of sorting by device ID.
	q := datastore.NewQuery(datastoreKind).FilterField("timestamp", ">=", startTime).Order("timestamp")
	return db.executeQuery(ctx, q)
}

func (db *datastoreDB) ReadingsBetween(ctx context.Context, startTime time.Time, endTime time.Time) (map[string][]measurement.Reading, error) {
	q := datastore.NewQuery(datastoreKind).FilterField("timestamp", ">=", startTime).FilterField("timestamp", "<=", endTime).Order("timestamp")
	return db.executeQuery(ctx, q)
}

func (db *datastoreDB) Latest(ctx context.Context, deviceIDs []string) (map[string]measurement.Reading, error) {
	latest := make(map[string]measurement.Reading)

	for _, id := range deviceIDs {
		if _, ok := latest[id]; ok {
			continue
		}

		cacheKey := measurement.CacheKeyLatest(id)

		// Try the cache
		if r, ok := db.latest.Get(cacheKey); ok {
			latest[id] = r
			continue
		}

		// Try the Datastore
		var r measurement.Reading
		q := datastore.NewQuery(datastoreKind).FilterField("device_id", "=", id).Order("-timestamp").Limit(1)
		it := db.client.Run(ctx, q)
		_, err := it.Next(&r)
		if err == iterator.Done {
			// Nothing found in the Datastore
			continue
		} else if err != nil {
			return latest, err
		}

		latest[id] = r
		db.latest.Set(cacheKey, r, latestTTL)
	}

	return latest, nil
}
