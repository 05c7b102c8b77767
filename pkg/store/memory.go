package store

import (
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps state in process memory. It lets several clients in one
// process share a cache and throttle without touching disk, and backs tests.
type MemoryStore struct {
	mu       sync.Mutex
	cache    CacheSnapshot
	throttle time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadCache() CacheSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil
	}
	return maps.Clone(s.cache)
}

func (s *MemoryStore) SaveCache(snapshot CacheSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = make(CacheSnapshot, len(snapshot))
	}
	maps.Copy(s.cache, snapshot)
	return nil
}

func (s *MemoryStore) LoadThrottle() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.throttle, !s.throttle.IsZero()
}

func (s *MemoryStore) SaveThrottle(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.throttle) {
		s.throttle = t
	}
	return nil
}
