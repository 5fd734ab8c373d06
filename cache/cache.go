// Package cache provides a small in-memory TTL cache used to avoid
// re-querying the database on every dashboard page load.
package cache

import (
	"sync"
	"time"
)

type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value V
	exp   time.Time
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
	}
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	e := entry[V]{
		value: value,
		exp:   time.Now().Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = e
}

// Get returns the value stored under key and whether it was present and
// unexpired. Expired entries are removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var val V

	e, ok := c.entries[key]
	if !ok {
		return val, false
	}

	// Present and unexpired
	if time.Now().Before(e.exp) {
		return e.value, true
	}

	// Expired
	delete(c.entries, key)
	return val, false
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
