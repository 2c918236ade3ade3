package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/chronos/pkg/feed"
)

// RedisNamespace prefixes every key written by the Redis store.
const RedisNamespace = "chronos:"

// Redis stores feeds in Redis with native key expiry.
// Capacity is bounded by the server's maxmemory policy rather than an entry count.
type Redis struct {
	redis *redis.Client
}

var (
	_ Store  = (*Redis)(nil)
	_ Pinger = (*Redis)(nil)
)

// NewRedis creates a Redis-backed store.
func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{redis: redisClient}
}

// Get retrieves the feed stored under key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (r *Redis) Get(ctx context.Context, key string) (feed.Feed, error) {
	data, err := r.redis.Get(ctx, RedisNamespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
			return feed.Feed{}, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return feed.Feed{}, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return feed.Feed{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis expiry has second granularity on some servers; trust the envelope.
	if entry.IsExpired() {
		_ = r.Delete(ctx, key)
		CacheMisses.WithLabelValues(layerRedis).Inc()
		return feed.Feed{}, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return entry.Value, nil
}

// Set stores value under key with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value feed.Feed, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	data, err := json.Marshal(Entry{
		Key:      key,
		Value:    value,
		Expires:  now.Add(ttl),
		CachedAt: now,
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := r.redis.Set(ctx, RedisNamespace+key, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, RedisNamespace+key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// InvalidateAll removes every key in the store's namespace.
func (r *Redis) InvalidateAll(ctx context.Context) error {
	iter := r.redis.Scan(ctx, 0, RedisNamespace+"*", 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.redis.Del(ctx, batch...).Err(); err != nil {
				CacheErrors.WithLabelValues("invalidate").Inc()
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("invalidate").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := r.redis.Del(ctx, batch...).Err(); err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// InvalidatePattern clears the whole namespace.
func (r *Redis) InvalidatePattern(ctx context.Context, _ string) error {
	return r.InvalidateAll(ctx)
}

// Ping checks backend connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}
