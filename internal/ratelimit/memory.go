package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often idle keys are dropped from a MemoryCounter.
const sweepInterval = time.Minute

// MemoryCounter keeps event timestamps in process memory. State is not
// shared between server instances. Keys with no event inside their window
// are swept at most once per sweepInterval.
type MemoryCounter struct {
	clock Clock

	mu        sync.Mutex
	events    map[string]*series
	lastSweep time.Time
}

type series struct {
	times  []time.Time
	window time.Duration
}

// NewMemoryCounter creates a MemoryCounter.
func NewMemoryCounter(clock Clock) *MemoryCounter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryCounter{
		clock:     clock,
		events:    make(map[string]*series),
		lastSweep: clock.Now(),
	}
}

func (c *MemoryCounter) IncrementAndCheck(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return c.check(key, limit, window, true), nil
}

func (c *MemoryCounter) Peek(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return c.check(key, limit, window, false), nil
}

func (c *MemoryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.events, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCounter) check(key string, limit int, window time.Duration, record bool) Decision {
	now := c.clock.Now()
	cutoff := now.Add(-window)

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= sweepInterval {
		c.sweep(now)
	}

	var kept []time.Time
	if s, ok := c.events[key]; ok {
		kept = s.times[:0]
		for _, t := range s.times {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
	}

	if len(kept) >= limit {
		c.events[key] = &series{times: kept, window: window}
		return Decision{Allowed: false, RetryAfter: retryAfter(kept[0], now, window)}
	}

	if record {
		kept = append(kept, now)
	}
	if len(kept) == 0 {
		delete(c.events, key)
	} else {
		c.events[key] = &series{times: kept, window: window}
	}

	remaining := limit - len(kept)
	if !record {
		remaining--
	}
	return Decision{Allowed: true, Remaining: max(remaining, 0)}
}

// sweep drops keys whose newest event has left their window.
func (c *MemoryCounter) sweep(now time.Time) {
	for key, s := range c.events {
		if n := len(s.times); n == 0 || !s.times[n-1].After(now.Add(-s.window)) {
			delete(c.events, key)
		}
	}
	c.lastSweep = now
}

// keys returns how many keys are tracked.
func (c *MemoryCounter) keys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
