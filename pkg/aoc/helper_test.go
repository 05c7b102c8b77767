package aoc_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/aoc-fetch/pkg/aoc"
	"github.com/rohmanhakim/aoc-fetch/pkg/config"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

var epoch = time.Date(2023, 12, 1, 5, 0, 0, 0, time.UTC)

type fetchCall struct {
	key        puzzle.Key
	credential string
	identity   string
	at         time.Time
}

// countingFetcher serves bodies from a map and records every call with the
// virtual time at which it started.
type countingFetcher struct {
	mu     sync.Mutex
	clock  timeutil.Clock
	bodies map[puzzle.Key]string
	errs   map[puzzle.Key]error
	delay  time.Duration
	calls  []fetchCall
}

func newCountingFetcher(clock timeutil.Clock) *countingFetcher {
	return &countingFetcher{
		clock:  clock,
		bodies: make(map[puzzle.Key]string),
		errs:   make(map[puzzle.Key]error),
	}
}

func (f *countingFetcher) Fetch(ctx context.Context, key puzzle.Key, credential, identity string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{key: key, credential: credential, identity: identity, at: f.clock.Now()})
	body, err := f.bodies[key], f.errs[key]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return body, nil
}

func (f *countingFetcher) set(key puzzle.Key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[key] = body
	delete(f.errs, key)
}

func (f *countingFetcher) fail(key puzzle.Key, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *countingFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fetchCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type storeMock struct {
	mock.Mock
}

func (s *storeMock) LoadCache() store.CacheSnapshot {
	args := s.Called()
	snapshot, _ := args.Get(0).(store.CacheSnapshot)
	return snapshot
}

func (s *storeMock) SaveCache(snapshot store.CacheSnapshot) error {
	return s.Called(snapshot).Error(0)
}

func (s *storeMock) LoadThrottle() (time.Time, bool) {
	args := s.Called()
	return args.Get(0).(time.Time), args.Bool(1)
}

func (s *storeMock) SaveThrottle(t time.Time) error {
	return s.Called(t).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, dir string) config.Config {
	t.Helper()
	builder := config.WithDefault("tests@example.com").WithSessionToken("session-abc")
	if dir == "" {
		builder = builder.WithPersistentCache(false)
	} else {
		builder = builder.WithStoreDir(dir)
	}
	cfg, err := builder.Build()
	require.NoError(t, err)
	return cfg
}

// newTestClient wires a client to a virtual clock so throttle waits complete
// instantly while advancing time.
func newTestClient(t *testing.T, cfg config.Config, clock *timeutil.ManualClock, f aoc.Fetcher, opts ...aoc.Option) *aoc.Client {
	t.Helper()
	base := []aoc.Option{
		aoc.WithFetcher(f),
		aoc.WithClock(clock),
		aoc.WithSleeper(clock),
		aoc.WithLogger(discardLogger()),
		aoc.WithMeterProvider(noop.NewMeterProvider()),
	}
	c, err := aoc.New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return c
}
