// Package cache provides time-bounded storage for sanitized feeds.
//
// Two Store implementations share one contract:
//
// - Memory: bounded in-process LRU (default 500 entries) with per-entry TTL
// checked on read (default 5 minutes unless the caller passes a TTL)
// - Redis: JSON-encoded entries under the "chronos:" namespace with native
// Redis expiry, for deployments that configure REDIS_URL
//
// Both return copies: a Feed obtained from Get never aliases the stored
// entry, so concurrent callers can't observe each other's mutations.
//
// # Basic Usage
//
//	store := cache.NewMemory()
//
//	key := cache.FeedKey(2, 29) // "history:2:29"
//
//	f, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, validate, sanitize ...
//		err = store.Set(ctx, key, f, cache.StrategyHistoryData)
//	}
//
// # Invalidation
//
// InvalidatePattern is intentionally coarse: it clears the whole store and
// ignores the pattern.
//
// # Metrics
//
//   - chronos_cache_hits_total{layer} - Cache hits
//   - chronos_cache_misses_total{layer} - Cache misses (absent or expired)
//   - chronos_cache_evictions_total - Capacity evictions (memory layer)
//   - chronos_cache_errors_total{operation} - Backend failures
package cache
