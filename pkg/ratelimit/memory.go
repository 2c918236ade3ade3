package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/chronos/internal/lru"
)

const (
	// DefaultMaxKeys bounds the number of tracked resource/identifier pairs.
	DefaultMaxKeys = 1000

	// DefaultKeyTTL reclaims idle keys. It is stretched to the window length
	// for longer windows so live timestamps are never dropped early.
	DefaultKeyTTL = time.Minute
)

// MemoryOption configures a Memory limiter.
type MemoryOption func(*Memory)

// WithMaxKeys overrides DefaultMaxKeys.
func WithMaxKeys(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxKeys = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// Memory is an in-process sliding-window limiter.
type Memory struct {
	maxKeys int
	clock   func() time.Time
	logger  zerolog.Logger

	// mu serializes prune+check+append so concurrent callers can't both
	// take the last slot.
	mu      sync.Mutex
	windows *lru.Cache[string, []time.Time]
}

var _ Limiter = (*Memory)(nil)

// NewMemory creates an in-process limiter.
func NewMemory(logger zerolog.Logger, opts ...MemoryOption) *Memory {
	m := &Memory{
		maxKeys: DefaultMaxKeys,
		clock:   time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.windows = lru.New[string, []time.Time](m.maxKeys, DefaultKeyTTL, lru.WithClock(m.clock))
	return m
}

// CheckLimit implements Limiter. It never returns an error.
func (m *Memory) CheckLimit(_ context.Context, identifier, resource string, maxRequests int, window time.Duration) (bool, error) {
	key := Key(resource, identifier)
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	stamps, _ := m.windows.Get(key)
	recent := prune(stamps, now.Add(-window))

	if len(recent) >= maxRequests {
		m.logger.Debug().
			Str("key", key).
			Int("count", len(recent)).
			Int("max_requests", maxRequests).
			Msg("Rate limit reached")
		observe(resource, true)
		return true, nil
	}

	recent = append(recent, now)
	ttl := DefaultKeyTTL
	if window > ttl {
		ttl = window
	}
	m.windows.Set(key, recent, ttl)

	observe(resource, false)
	return false, nil
}

// Remaining implements Limiter. It never returns an error.
func (m *Memory) Remaining(_ context.Context, identifier, resource string, maxRequests int, window time.Duration) (int, error) {
	now := m.clock()

	m.mu.Lock()
	stamps, _ := m.windows.Peek(Key(resource, identifier))
	count := countAfter(stamps, now.Add(-window))
	m.mu.Unlock()

	if remaining := maxRequests - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// prune returns a fresh slice of the timestamps strictly after windowStart.
func prune(stamps []time.Time, windowStart time.Time) []time.Time {
	out := make([]time.Time, 0, len(stamps)+1)
	for _, ts := range stamps {
		if ts.After(windowStart) {
			out = append(out, ts)
		}
	}
	return out
}

func countAfter(stamps []time.Time, windowStart time.Time) int {
	n := 0
	for _, ts := range stamps {
		if ts.After(windowStart) {
			n++
		}
	}
	return n
}
