package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLogScript keeps one sorted-set member per admitted hit, scored by the
// Redis server clock in milliseconds. Hits older than the window are trimmed,
// the new hit is recorded only while the log holds fewer than the limit, and
// the key expires one window after the last admitted hit.
// Returns the count including this attempt and the ms until the oldest hit leaves the window.
var slidingLogScript = redis.NewScript(`
redis.replicate_commands()
local t = redis.call("TIME")
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
if count < limit then
	redis.call("ZADD", KEYS[1], now, ARGV[3])
	redis.call("PEXPIRE", KEYS[1], window)
end

local reset = window
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
if oldest[2] then
	reset = tonumber(oldest[2]) + window - now
end
return {count + 1, reset}
`)

// RedisCounter is a sliding-log Counter shared by every replica through Redis.
type RedisCounter struct {
	rdb redis.Cmdable
}

// NewRedisCounter creates a RedisCounter.
func NewRedisCounter(rdb redis.Cmdable) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Increment records one attempt for key in a single script call.
func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration, limit int) (int64, time.Duration, error) {
	vals, err := slidingLogScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected script reply of %d values", len(vals))
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// Reset deletes the log of key.
func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
