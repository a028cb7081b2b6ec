package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupRedisCounter(t *testing.T, clock Clock) *RedisCounter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCounter(client, clock)
}

// counters runs each test against both implementations.
func counters(t *testing.T) map[string]func(Clock) Counter {
	return map[string]func(Clock) Counter{
		"memory": func(c Clock) Counter { return NewMemoryCounter(c) },
		"redis":  func(c Clock) Counter { return setupRedisCounter(t, c) },
	}
}

func TestCounter_SlidingWindow(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			c := newCounter(clock)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				d, err := c.IncrementAndCheck(ctx, "1.2.3.4:/login", 3, time.Minute)
				require.NoError(t, err)
				assert.True(t, d.Allowed)
				assert.Equal(t, 2-i, d.Remaining)
				clock.Advance(10 * time.Second)
			}

			d, err := c.IncrementAndCheck(ctx, "1.2.3.4:/login", 3, time.Minute)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, 30*time.Second, d.RetryAfter)

			// The first event leaves the window.
			clock.Advance(30 * time.Second)
			d, err = c.IncrementAndCheck(ctx, "1.2.3.4:/login", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, 0, d.Remaining)
		})
	}
}

func TestCounter_KeysAreIndependent(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			c := newCounter(newFakeClock())
			ctx := context.Background()

			d, err := c.IncrementAndCheck(ctx, "a", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed)

			d, err = c.IncrementAndCheck(ctx, "a", 1, time.Minute)
			require.NoError(t, err)
			assert.False(t, d.Allowed)

			d, err = c.IncrementAndCheck(ctx, "b", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestCounter_PeekDoesNotRecord(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			c := newCounter(newFakeClock())
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				d, err := c.Peek(ctx, "k", 1, time.Minute)
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			}

			_, err := c.IncrementAndCheck(ctx, "k", 1, time.Minute)
			require.NoError(t, err)

			d, err := c.Peek(ctx, "k", 1, time.Minute)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
		})
	}
}

func TestCounter_Reset(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			c := newCounter(newFakeClock())
			ctx := context.Background()

			_, err := c.IncrementAndCheck(ctx, "k", 1, time.Minute)
			require.NoError(t, err)
			require.NoError(t, c.Reset(ctx, "k"))

			d, err := c.IncrementAndCheck(ctx, "k", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestLockout(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			l := NewLockout(newCounter(clock), 5, 5*time.Minute)
			ctx := context.Background()

			for i := 0; i < 4; i++ {
				locked, _, err := l.RecordFailure(ctx, "ada@example.com")
				require.NoError(t, err)
				assert.False(t, locked, "failure %d", i+1)
			}

			locked, wait, err := l.RecordFailure(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.True(t, locked)
			assert.Equal(t, 5*time.Minute, wait)

			locked, wait, err = l.Locked(ctx, "ADA@example.com")
			require.NoError(t, err)
			assert.True(t, locked)
			assert.Equal(t, 5*time.Minute, wait)

			clock.Advance(5*time.Minute + time.Second)
			locked, _, err = l.Locked(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.False(t, locked)

			// The failure count started over.
			locked, _, err = l.RecordFailure(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.False(t, locked)
		})
	}
}

func TestLockout_ResetOnSuccess(t *testing.T) {
	l := NewLockout(NewMemoryCounter(newFakeClock()), 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := l.RecordFailure(ctx, "u")
		require.NoError(t, err)
	}
	require.NoError(t, l.Reset(ctx, "u"))

	for i := 0; i < 2; i++ {
		locked, _, err := l.RecordFailure(ctx, "u")
		require.NoError(t, err)
		assert.False(t, locked)
	}
}

func TestMemoryCounter_SweepsIdleKeys(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCounter(clock)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := c.IncrementAndCheck(ctx, fmt.Sprintf("10.0.0.%d:/auth/login", i), 5, 30*time.Second)
		require.NoError(t, err)
	}
	_, err := c.IncrementAndCheck(ctx, "lock:rep@example.com", 1, 10*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 51, c.keys())

	// Inside the sweep interval nothing is dropped.
	clock.Advance(45 * time.Second)
	_, err = c.IncrementAndCheck(ctx, "10.0.0.200:/auth/login", 5, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 52, c.keys())

	clock.Advance(sweepInterval)
	_, err = c.IncrementAndCheck(ctx, "10.0.0.201:/auth/login", 5, 30*time.Second)
	require.NoError(t, err)

	// Expired short-window keys are gone; the long lock and the new key stay.
	assert.Equal(t, 2, c.keys())
	d, err := c.Peek(ctx, "lock:rep@example.com", 1, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
