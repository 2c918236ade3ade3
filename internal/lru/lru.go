// Package lru provides a bounded, mutex-guarded LRU map with per-entry expiry.
package lru

import (
	"container/list"
	"sync"
	"time"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock   func() time.Time
	onEvict func()
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithEvictHook is called (under the lock) whenever capacity forces an eviction.
func WithEvictHook(fn func()) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// Cache is a fixed-capacity map that evicts the least recently used entry on
// overflow and treats entries past their expiry as absent.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	opts       options

	ll    *list.List
	items map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// New creates a cache holding at most maxEntries entries. Entries set with a
// non-positive TTL use defaultTTL; a zero defaultTTL means no expiry.
func New[K comparable, V any](maxEntries int, defaultTTL time.Duration, opts ...Option) *Cache[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache[K, V]{
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		opts:       options{clock: time.Now},
		ll:         list.New(),
		items:      make(map[K]*list.Element),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
// An expired entry is purged and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.liveLocked(key)
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Peek is Get without touching recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.liveLocked(key)
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[K, V]).value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.expiryFrom(c.opts.clock(), ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.trimToCapacityLocked()
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

// Purge removes every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) liveLocked(key K) (*list.Element, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry[K, V])
	if !e.expiresAt.IsZero() && !c.opts.clock().Before(e.expiresAt) {
		c.deleteLocked(key)
		return nil, false
	}
	return el, true
}

func (c *Cache[K, V]) trimToCapacityLocked() {
	for c.ll.Len() > c.maxEntries {
		back := c.ll.Back()
		if back == nil {
			return
		}
		c.deleteLocked(back.Value.(*entry[K, V]).key)
		if c.opts.onEvict != nil {
			c.opts.onEvict()
		}
	}
}

func (c *Cache[K, V]) deleteLocked(key K) {
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

func (c *Cache[K, V]) expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
