package cache

import (
	"context"
	"time"

	"github.com/Sternrassler/chronos/internal/lru"
	"github.com/Sternrassler/chronos/pkg/feed"
)

// MemoryOption configures a Memory store.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	maxEntries int
	defaultTTL time.Duration
	clock      func() time.Time
}

// WithMaxEntries overrides DefaultMaxEntries.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		c.clock = clock
	}
}

// Memory is an in-process LRU feed store.
type Memory struct {
	entries *lru.Cache[string, feed.Feed]
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-process store.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := memoryConfig{
		maxEntries: DefaultMaxEntries,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Memory{
		entries: lru.New[string, feed.Feed](cfg.maxEntries, cfg.defaultTTL,
			lru.WithClock(cfg.clock),
			lru.WithEvictHook(CacheEvictions.Inc),
		),
	}
}

// Get retrieves a copy of the feed stored under key.
// Returns ErrCacheMiss if the key doesn't exist or the entry has expired.
func (m *Memory) Get(_ context.Context, key string) (feed.Feed, error) {
	f, ok := m.entries.Get(key)
	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return feed.Feed{}, ErrCacheMiss
	}
	CacheHits.WithLabelValues(layerMemory).Inc()
	return f.Clone(), nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value feed.Feed, ttl time.Duration) error {
	m.entries.Set(key, value.Clone(), ttl)
	return nil
}

// Delete removes a cache entry.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// InvalidateAll removes every entry.
func (m *Memory) InvalidateAll(_ context.Context) error {
	m.entries.Purge()
	return nil
}

// InvalidatePattern clears the whole store.
func (m *Memory) InvalidatePattern(ctx context.Context, _ string) error {
	return m.InvalidateAll(ctx)
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	return m.entries.Len()
}
