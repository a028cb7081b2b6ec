package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Lockout locks an account identifier after too many failed logins. Once
// MaxAttempts failures fall within Duration the identifier is locked for
// Duration and its failure count starts over.
type Lockout struct {
	counter     Counter
	maxAttempts int
	duration    time.Duration
}

// NewLockout creates a Lockout over counter.
func NewLockout(counter Counter, maxAttempts int, duration time.Duration) *Lockout {
	return &Lockout{counter: counter, maxAttempts: maxAttempts, duration: duration}
}

func failuresKey(id string) string { return "login-failures:" + strings.ToLower(id) }
func lockKey(id string) string     { return "login-lock:" + strings.ToLower(id) }

// Locked reports whether id is locked and for how long.
func (l *Lockout) Locked(ctx context.Context, id string) (bool, time.Duration, error) {
	d, err := l.counter.Peek(ctx, lockKey(id), 1, l.duration)
	if err != nil {
		return false, 0, fmt.Errorf("checking lockout: %w", err)
	}
	return !d.Allowed, d.RetryAfter, nil
}

// RecordFailure counts a failed login and locks id when the limit is hit.
func (l *Lockout) RecordFailure(ctx context.Context, id string) (bool, time.Duration, error) {
	d, err := l.counter.IncrementAndCheck(ctx, failuresKey(id), l.maxAttempts, l.duration)
	if err != nil {
		return false, 0, fmt.Errorf("recording login failure: %w", err)
	}
	if d.Allowed && d.Remaining > 0 {
		return false, 0, nil
	}

	if _, err := l.counter.IncrementAndCheck(ctx, lockKey(id), 1, l.duration); err != nil {
		return false, 0, fmt.Errorf("locking account: %w", err)
	}
	if err := l.counter.Reset(ctx, failuresKey(id)); err != nil {
		return false, 0, fmt.Errorf("resetting login failures: %w", err)
	}
	return true, l.duration, nil
}

// Reset clears the failure count after a successful login.
func (l *Lockout) Reset(ctx context.Context, id string) error {
	return l.counter.Reset(ctx, failuresKey(id))
}
