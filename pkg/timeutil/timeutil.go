package timeutil

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock abstracts wall-clock reads so waits can be driven by tests.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TimerSleep sleeps on a real timer. It returns ctx.Err() when the context is
// cancelled before the timer fires.
type TimerSleep struct{}

func (TimerSleep) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualClock is a virtual clock. Sleep advances the clock instead of
// blocking, so a wait of three minutes completes instantly while Now()
// reflects the elapsed time.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.slept = append(c.slept, d)
	return nil
}

// Sleeps returns every duration passed to Sleep, in call order.
func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}

// Remaining returns how long to wait so that at least cooldown separates last
// from the next event. A zero last means no prior event.
func Remaining(now, last time.Time, cooldown time.Duration) time.Duration {
	if last.IsZero() {
		return 0
	}
	return MaxDuration([]time.Duration{0, last.Add(cooldown).Sub(now)})
}

// FormatUnixSeconds encodes t as decimal seconds since the Unix epoch, e.g.
// "1701406800.25". The fraction carries full nanosecond precision, so
// ParseUnixSeconds(FormatUnixSeconds(t)) equals t.
func FormatUnixSeconds(t time.Time) string {
	secs := strconv.FormatInt(t.Unix(), 10)
	if t.Nanosecond() == 0 {
		return secs
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond()), "0")
	return secs + "." + frac
}

// ParseUnixSeconds decodes decimal seconds since the Unix epoch. Digits past
// nanosecond precision round up, and any other float notation is rounded up
// to the next microsecond: a decoded timestamp is never earlier than the one
// that was written. Negative, NaN and infinite values are rejected.
func ParseUnixSeconds(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if isDigits(whole) && (!hasFrac || isDigits(frac)) {
		secs, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		var nanos int64
		if hasFrac {
			roundUp := len(frac) > 9 && strings.TrimRight(frac[9:], "0") != ""
			if len(frac) > 9 {
				frac = frac[:9]
			}
			nanos, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
			if roundUp {
				nanos++
			}
		}
		return time.Unix(secs, nanos), true
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return time.Time{}, false
	}
	secs, fracSecs := math.Modf(f)
	micros := math.Ceil(fracSecs * 1e6)
	return time.Unix(int64(secs), int64(micros)*int64(time.Microsecond)), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaxDuration returns the maximum duration from the provided slice.
// Returns 0 if the slice is empty.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}
