// Package store defines the persistent layer behind the client cache and
// throttle, and ships the implementations hosts can plug in.
//
// A Store carries no business logic. Loads fail open: absent, unreadable or
// corrupt state reads as "nothing stored". Saves report failures so the caller
// can surface them, but callers never abort on them.
package store

import (
	"time"

	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
)

// CacheSnapshot is the persisted form of the resource cache.
type CacheSnapshot map[puzzle.Key]string

// Store persists the cache snapshot and the throttle timestamp between runs.
// Implementations must be safe for concurrent use.
type Store interface {
	// LoadCache returns the stored snapshot, or nil when none exists or it
	// cannot be read.
	LoadCache() CacheSnapshot
	SaveCache(snapshot CacheSnapshot) error
	// LoadThrottle returns the last recorded outbound request time.
	LoadThrottle() (time.Time, bool)
	SaveThrottle(t time.Time) error
}
