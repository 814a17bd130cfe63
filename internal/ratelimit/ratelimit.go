// Package ratelimit implements a fixed-window request limiter shared across
// gateway instances through Redis.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a caller may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter allows Limit requests per key per Window
type RedisLimiter struct {
	client  redis.Scripter
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewRedis creates a limiter allowing limit requests per window
func NewRedis(client redis.Scripter, limit int, window time.Duration, logger *logrus.Logger) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  "athletehub:rl:",
		timeout: 250 * time.Millisecond,
		logger:  logger,
	}
}

// NewFromURL connects to Redis using a redis:// URL
func NewFromURL(redisURL string, perMinute int, logger *logrus.Logger) (*RedisLimiter, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return NewRedis(client, perMinute, time.Minute, logger), client, nil
}

// Allow counts one request for key. Redis failures allow the request.
func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.client == nil {
		return l.open()
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Rate limiter unavailable, allowing request")
		return l.open()
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return l.open()
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= l.limit,
		Count:     int(count),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}

func (l *RedisLimiter) open() Decision {
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit,
		ResetAt:   time.Now().UTC().Add(l.window),
	}
}
