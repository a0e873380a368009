// Package dedupe provides a bounded recently-seen cache for tunnel frame
// IDs, supporting deliveryMode semantics for atLeastOnce/exactlyOnce
// frames: a frame ID observed twice within the window is a retransmit, not
// a new request.
package dedupe

import (
	"time"

	"github.com/maypok86/otter"
	"github.com/zeebo/xxh3"
)

// DefaultCapacity bounds the number of in-flight frame IDs tracked at once.
const DefaultCapacity = 10000

// DefaultTTL is how long a frame ID is remembered after first being seen.
const DefaultTTL = 5 * time.Minute

// Cache tracks recently seen frame IDs to detect retransmits.
type Cache struct {
	cache otter.Cache[uint64, struct{}]
	ttl   time.Duration
}

// New builds a Cache with the given capacity and TTL. A non-positive
// capacity or ttl falls back to the package defaults.
func New(capacity int, ttl time.Duration) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := otter.MustBuilder[uint64, struct{}](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &Cache{cache: c, ttl: ttl}, nil
}

// SeenBefore reports whether frameID was already recorded, and records it
// if this is the first sighting. Thread-safe for concurrent callers.
func (c *Cache) SeenBefore(frameID string) bool {
	key := xxh3.HashString(frameID)
	if _, ok := c.cache.Get(key); ok {
		return true
	}
	c.cache.Set(key, struct{}{})
	return false
}

// Close releases background resources held by the underlying cache.
func (c *Cache) Close() {
	c.cache.Close()
}
