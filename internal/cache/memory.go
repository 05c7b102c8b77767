package cache

import (
	"maps"
	"sync"

	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
)

// MemoryCache is an in-memory implementation of the Cache interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
//
// Entries never expire and there is no eviction: a puzzle input does not
// change once published, and one user's full set is small.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[puzzle.Key]string
}

// NewMemoryCache creates a new in-memory cache instance.
// The cache is initialized empty and ready for use.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[puzzle.Key]string),
	}
}

// Get retrieves a body from the cache by key.
// This method is thread-safe for concurrent reads.
func (c *MemoryCache) Get(key puzzle.Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.data[key]
	return value, exists
}

// Put stores a body in the cache.
// If the key already exists, the value is overwritten.
func (c *MemoryCache) Put(key puzzle.Key, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = body
}

func (c *MemoryCache) Invalidate(key puzzle.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// LoadFrom merges the persisted snapshot into the cache. A nil store or a
// store with nothing saved is a no-op. Entries already in memory win.
func (c *MemoryCache) LoadFrom(s store.Store) {
	if s == nil {
		return
	}
	snapshot := s.LoadCache()
	if len(snapshot) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, body := range snapshot {
		if _, exists := c.data[key]; !exists {
			c.data[key] = body
		}
	}
}

// FlushTo saves a snapshot of the cache. The lock is released before the
// store is called, so a slow store does not block readers.
func (c *MemoryCache) FlushTo(s store.Store) error {
	if s == nil {
		return nil
	}
	return s.SaveCache(c.Snapshot())
}

// Snapshot returns a copy of every entry.
func (c *MemoryCache) Snapshot() store.CacheSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return store.CacheSnapshot(maps.Clone(c.data))
}

// Clear removes all entries from the cache.
// This method is primarily useful for testing.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[puzzle.Key]string)
}

// Size returns the number of entries in the cache.
// This method is primarily useful for testing and diagnostics.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
