package cache

import (
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
)

// Cache defines the port interface for fetched resource bodies.
// This interface follows the port-adapter pattern, so the client does not
// depend on how entries are held in memory.
type Cache interface {
	// Get retrieves a body by key. It never performs I/O.
	Get(key puzzle.Key) (string, bool)

	// Put stores a body, overwriting any existing entry for key.
	Put(key puzzle.Key, body string)

	// Invalidate removes the entry for key, if any.
	Invalidate(key puzzle.Key)

	// LoadFrom merges the snapshot held by s into the cache.
	// Absent or unreadable state leaves the cache unchanged.
	LoadFrom(s store.Store)

	// FlushTo writes the full cache content to s.
	FlushTo(s store.Store) error

	// Size returns the number of entries.
	Size() int
}
