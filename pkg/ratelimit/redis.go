package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisKeyPrefix namespaces sliding-window sorted sets. It sits outside
// the cache namespace so cache invalidation leaves budgets alone.
const RedisKeyPrefix = "ratelimit:chronos:"

// slidingWindowScript prunes, checks and records in one atomic step.
// Scores are unix milliseconds. Returns 1 when limited.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
  return 1
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 0
`)

// Redis is a sliding-window limiter shared across processes.
type Redis struct {
	redis  *redis.Client
	clock  func() time.Time
	logger zerolog.Logger
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a Redis-backed limiter.
func NewRedis(redisClient *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{
		redis:  redisClient,
		clock:  time.Now,
		logger: logger,
	}
}

// CheckLimit implements Limiter.
func (r *Redis) CheckLimit(ctx context.Context, identifier, resource string, maxRequests int, window time.Duration) (bool, error) {
	key := RedisKeyPrefix + Key(resource, identifier)
	now := r.clock().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, r.redis, []string{key},
		now, window.Milliseconds(), maxRequests, member).Int()
	if err != nil {
		return false, fmt.Errorf("run sliding window script: %w", err)
	}

	limited := res == 1
	if limited {
		r.logger.Debug().
			Str("key", key).
			Int("max_requests", maxRequests).
			Msg("Rate limit reached")
	}
	observe(resource, limited)
	return limited, nil
}

// Remaining implements Limiter.
func (r *Redis) Remaining(ctx context.Context, identifier, resource string, maxRequests int, window time.Duration) (int, error) {
	key := RedisKeyPrefix + Key(resource, identifier)
	windowStart := r.clock().UnixMilli() - window.Milliseconds()

	count, err := r.redis.ZCount(ctx, key, "("+strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count window: %w", err)
	}

	if remaining := maxRequests - int(count); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
