package cache

import (
	"time"

	"github.com/Sternrassler/chronos/pkg/feed"
)

// Entry is the serialized form of a cached feed in external backends.
type Entry struct {
	// Key is the cache key the entry was stored under
	Key string `json:"key"`

	// Value is the sanitized feed
	Value feed.Feed `json:"value"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was written
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
