package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
)

// DefaultCooldown is the minimum spacing between two outbound requests.
const DefaultCooldown = 3 * time.Minute

// Throttle
// Keeps outbound requests at least one cooldown apart.
// Responsibilities:
// - Bookkeep the start time of the last outbound request
// - Block the caller until the cooldown has elapsed
// - Carry the timestamp across runs through a store.Store
//
// A single mutex guards both the wait and the record, so concurrent callers
// are admitted one at a time and never closer than the cooldown.
type Throttle struct {
	mu           sync.Mutex
	cooldown     time.Duration
	last         time.Time
	clock        timeutil.Clock
	sleeper      timeutil.Sleeper
	metadataSink metadata.MetadataSink
}

type Option func(*Throttle)

func WithCooldown(d time.Duration) Option {
	return func(t *Throttle) {
		t.cooldown = d
	}
}

func WithClock(clock timeutil.Clock) Option {
	return func(t *Throttle) {
		t.clock = clock
	}
}

func WithSleeper(sleeper timeutil.Sleeper) Option {
	return func(t *Throttle) {
		t.sleeper = sleeper
	}
}

func WithMetadataSink(sink metadata.MetadataSink) Option {
	return func(t *Throttle) {
		t.metadataSink = sink
	}
}

func New(opts ...Option) *Throttle {
	t := &Throttle{
		cooldown:     DefaultCooldown,
		clock:        timeutil.SystemClock{},
		sleeper:      timeutil.TimerSleep{},
		metadataSink: metadata.NoopSink{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Admit waits until the cooldown has elapsed since the last recorded request,
// then records now as the new last request. It returns how long it waited.
// When ctx ends first nothing is recorded and ctx.Err() is returned.
func (t *Throttle) Admit(ctx context.Context) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	waited, err := t.waitLocked(ctx)
	if err != nil {
		return waited, err
	}
	t.last = t.clock.Now()
	t.metadataSink.RecordThrottle(waited)
	return waited, nil
}

// WaitIfNeeded blocks until a request would be admitted, without recording one.
// Callers that go on to make the request should use Admit instead, which
// waits and records under one lock; WaitIfNeeded followed by
// RecordRequestTime lets two callers pass the same wait.
func (t *Throttle) WaitIfNeeded(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.waitLocked(ctx)
	return err
}

// RecordRequestTime overwrites the last request time. The client records
// through Admit; this is for hosts that made a request outside the throttle.
func (t *Throttle) RecordRequestTime(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = at
}

// LastRequestAt returns the recorded timestamp; zero means none.
func (t *Throttle) LastRequestAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last
}

// LoadFrom adopts the persisted timestamp when it is later than the one held.
// A nil store or missing state changes nothing.
func (t *Throttle) LoadFrom(s store.Store) {
	if s == nil {
		return
	}
	persisted, ok := s.LoadThrottle()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if persisted.After(t.last) {
		t.last = persisted
	}
}

// FlushTo persists the timestamp. Nothing is written when no request was
// ever recorded.
func (t *Throttle) FlushTo(s store.Store) error {
	if s == nil {
		return nil
	}
	last := t.LastRequestAt()
	if last.IsZero() {
		return nil
	}
	return s.SaveThrottle(last)
}

// waitLocked does NOT take the lock; caller must hold t.mu.
// A timestamp in the future is honored as-is: the wait lasts until
// last + cooldown.
func (t *Throttle) waitLocked(ctx context.Context) (time.Duration, error) {
	wait := timeutil.Remaining(t.clock.Now(), t.last, t.cooldown)
	if wait == 0 {
		return 0, ctx.Err()
	}
	if err := t.sleeper.Sleep(ctx, wait); err != nil {
		return 0, err
	}
	return wait, nil
}
