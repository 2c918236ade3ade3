package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/chronos/pkg/feed"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

const (
	// DefaultTTL applies when Set is called with a non-positive TTL
	DefaultTTL = 5 * time.Minute

	// DefaultMaxEntries bounds the memory store
	DefaultMaxEntries = 500

	// StrategyHistoryData is the TTL for "on this day" feeds
	StrategyHistoryData = 24 * time.Hour
)

// Store is a TTL-bounded feed cache.
type Store interface {
	// Get returns a copy of the feed stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (feed.Feed, error)

	// Set stores a copy of value under key for ttl (DefaultTTL if ttl <= 0).
	Set(ctx context.Context, key string, value feed.Feed, ttl time.Duration) error

	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// InvalidateAll removes every entry.
	InvalidateAll(ctx context.Context) error

	// InvalidatePattern clears the whole store; pattern is ignored.
	InvalidatePattern(ctx context.Context, pattern string) error
}

// Pinger is implemented by stores with an external backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
