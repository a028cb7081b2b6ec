package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Trims the window, then admits and records the event if there is room.
// Returns {allowed, count, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]
local record = ARGV[5] == "1"

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
	local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
	return {0, count, tonumber(oldest[2])}
end
if record then
	redis.call("ZADD", key, now, member)
	redis.call("PEXPIRE", key, window)
	count = count + 1
end
return {1, count, 0}
`)

// RedisCounter keeps one sorted set per key, scored by event time in
// milliseconds, so limits hold across server instances.
type RedisCounter struct {
	client redis.UniversalClient
	clock  Clock
}

// NewRedisCounter creates a RedisCounter.
func NewRedisCounter(client redis.UniversalClient, clock Clock) *RedisCounter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RedisCounter{client: client, clock: clock}
}

func (c *RedisCounter) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return c.check(ctx, key, limit, window, true)
}

func (c *RedisCounter) Peek(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return c.check(ctx, key, limit, window, false)
}

func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("resetting %s: %w", key, err)
	}
	return nil
}

func (c *RedisCounter) check(ctx context.Context, key string, limit int, window time.Duration, record bool) (Decision, error) {
	now := c.clock.Now()
	flag := "0"
	if record {
		flag = "1"
	}

	res, err := slidingWindow.Run(ctx, c.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(), flag).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("checking %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("checking %s: unexpected reply %v", key, res)
	}

	count := int(res[1])
	if res[0] == 0 {
		oldest := time.UnixMilli(res[2])
		return Decision{Allowed: false, RetryAfter: retryAfter(oldest, now, window)}, nil
	}

	remaining := limit - count
	if !record {
		remaining--
	}
	return Decision{Allowed: true, Remaining: max(remaining, 0)}, nil
}
