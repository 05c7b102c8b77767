package throttle_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/internal/throttle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2023, 12, 1, 5, 0, 0, 0, time.UTC)

func newVirtual(opts ...throttle.Option) (*throttle.Throttle, *timeutil.ManualClock) {
	clock := timeutil.NewManualClock(start)
	opts = append([]throttle.Option{throttle.WithClock(clock), throttle.WithSleeper(clock)}, opts...)
	return throttle.New(opts...), clock
}

func TestThrottle_FirstRequestIsImmediate(t *testing.T) {
	th, clock := newVirtual()

	waited, err := th.Admit(context.Background())

	require.NoError(t, err)
	assert.Zero(t, waited)
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, start, th.LastRequestAt())
}

func TestThrottle_ConsecutiveRequestsAreCooldownApart(t *testing.T) {
	th, clock := newVirtual()

	_, err := th.Admit(context.Background())
	require.NoError(t, err)
	first := th.LastRequestAt()

	clock.Advance(time.Minute)
	waited, err := th.Admit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, waited)
	assert.Equal(t, []time.Duration{2 * time.Minute}, clock.Sleeps())
	assert.GreaterOrEqual(t, th.LastRequestAt().Sub(first), throttle.DefaultCooldown)
}

func TestThrottle_NoWaitAfterCooldown(t *testing.T) {
	th, clock := newVirtual()
	th.RecordRequestTime(start.Add(-throttle.DefaultCooldown))

	require.NoError(t, th.WaitIfNeeded(context.Background()))
	assert.Empty(t, clock.Sleeps())
}

func TestThrottle_FutureTimestampWaitsUntilCooldownAfterIt(t *testing.T) {
	th, clock := newVirtual()
	th.RecordRequestTime(start.Add(time.Minute))

	waited, err := th.Admit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4*time.Minute, waited)
	assert.Equal(t, start.Add(4*time.Minute), clock.Now())
}

func TestThrottle_CancelledWaitRecordsNothing(t *testing.T) {
	th := throttle.New(throttle.WithCooldown(time.Hour))
	th.RecordRequestTime(time.Now())
	before := th.LastRequestAt()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := th.Admit(ctx)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, before, th.LastRequestAt())
}

func TestThrottle_RealTimerSleeps(t *testing.T) {
	cooldown := 30 * time.Millisecond
	th := throttle.New(throttle.WithCooldown(cooldown))

	began := time.Now()
	_, err := th.Admit(context.Background())
	require.NoError(t, err)
	_, err = th.Admit(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(began), cooldown)
}

// admissionLog captures the virtual time of every admission. RecordThrottle
// runs while the throttle lock is held, right after the timestamp is set.
type admissionLog struct {
	metadata.NoopSink
	mu    sync.Mutex
	clock timeutil.Clock
	times []time.Time
}

func (a *admissionLog) RecordThrottle(time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.times = append(a.times, a.clock.Now())
}

func TestThrottle_ConcurrentAdmissionsAreSerialized(t *testing.T) {
	clock := timeutil.NewManualClock(start)
	log := &admissionLog{clock: clock}
	th := throttle.New(
		throttle.WithClock(clock),
		throttle.WithSleeper(clock),
		throttle.WithMetadataSink(log),
	)

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := th.Admit(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, log.times, callers)
	sort.Slice(log.times, func(i, j int) bool { return log.times[i].Before(log.times[j]) })
	for i := 1; i < len(log.times); i++ {
		gap := log.times[i].Sub(log.times[i-1])
		assert.GreaterOrEqual(t, gap, throttle.DefaultCooldown, "admissions %d and %d", i-1, i)
	}
}

func TestThrottle_LoadFrom(t *testing.T) {
	tests := []struct {
		name      string
		held      time.Time
		persisted time.Time
		want      time.Time
	}{
		{name: "nothing held", held: time.Time{}, persisted: start, want: start},
		{name: "persisted is later", held: start, persisted: start.Add(time.Minute), want: start.Add(time.Minute)},
		{name: "held is later", held: start.Add(time.Minute), persisted: start, want: start.Add(time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			require.NoError(t, s.SaveThrottle(tt.persisted))

			th, _ := newVirtual()
			th.RecordRequestTime(tt.held)
			th.LoadFrom(s)

			assert.Equal(t, tt.want, th.LastRequestAt())
		})
	}
}

func TestThrottle_LoadFromNothing(t *testing.T) {
	th, _ := newVirtual()

	th.LoadFrom(nil)
	th.LoadFrom(store.NewMemoryStore())

	assert.True(t, th.LastRequestAt().IsZero())
}

func TestThrottle_FlushTo(t *testing.T) {
	s := store.NewMemoryStore()
	th, _ := newVirtual()

	// nothing recorded, nothing written
	require.NoError(t, th.FlushTo(s))
	_, ok := s.LoadThrottle()
	assert.False(t, ok)

	_, err := th.Admit(context.Background())
	require.NoError(t, err)
	require.NoError(t, th.FlushTo(s))

	got, ok := s.LoadThrottle()
	require.True(t, ok)
	assert.Equal(t, start, got)

	assert.NoError(t, th.FlushTo(nil))
}

func TestThrottle_StateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	first, clock := newVirtual()
	_, err = first.Admit(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.FlushTo(fs))

	// a new instance one minute later must still wait out the remainder
	clock.Advance(time.Minute)
	reopened, err := store.NewFileStore(dir)
	require.NoError(t, err)
	second := throttle.New(throttle.WithClock(clock), throttle.WithSleeper(clock))
	second.LoadFrom(reopened)

	waited, err := second.Admit(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, float64(2*time.Minute), float64(waited), float64(time.Millisecond))
}
