package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua: atomic INCR + PEXPIRE on the first hit, returns count and remaining ttl (ms)
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Lua: give one attempt back, never below zero; keeps the existing ttl
var releaseScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current > 0 then
  return redis.call("DECR", KEYS[1])
end
return 0
`)

// Decision is the outcome of a single Acquire.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	Remaining  int
	ResetIn    time.Duration
	RetryAfter time.Duration
}

// AttemptLimiter counts attempts per key in a fixed window. Counting and
// checking happen in one Redis round trip so concurrent callers can't
// slip past the limit.
type AttemptLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewAttemptLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *AttemptLimiter) Limit() int { return l.limit }

// Acquire records one attempt for key and reports whether it is within the limit.
func (l *AttemptLimiter) Acquire(ctx context.Context, key string) (Decision, error) {
	res, err := incrExpireScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.window.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected redis response length: %d", len(res))
	}
	count := toInt(res[0])
	ttl := time.Duration(toInt(res[1])) * time.Millisecond

	d := Decision{Count: count, Limit: l.limit, Allowed: count <= l.limit, ResetIn: ttl}
	if rem := l.limit - count; rem > 0 {
		d.Remaining = rem
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}

// Allow is Acquire reduced to a yes/no and the time until the window resets.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	d, err := l.Acquire(ctx, key)
	if err != nil {
		return true, 0, err
	}
	return d.Allowed, d.RetryAfter, nil
}

// Release returns one attempt recorded by Acquire, for attempts that
// turned out not to count against the caller.
func (l *AttemptLimiter) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.prefix + key}).Err()
}

// Reset forgets every attempt recorded for key.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.prefix+key).Err()
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
