// Package ratelimit provides sliding-window counters for throttling and
// login lockout. Time comes from an injected Clock.
package ratelimit

import (
	"context"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Decision is the outcome of a counter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Counter counts events per key over a sliding window.
type Counter interface {
	// IncrementAndCheck records an event when fewer than limit events fall
	// inside the window. A denied event is not recorded.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)

	// Peek reports what IncrementAndCheck would decide without recording.
	Peek(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)

	// Reset forgets every event of key.
	Reset(ctx context.Context, key string) error
}

func retryAfter(oldest, now time.Time, window time.Duration) time.Duration {
	d := oldest.Add(window).Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d
}
