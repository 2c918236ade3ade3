package cache

import "fmt"

// FeedKey returns the cache key for a calendar date.
// Format: history:{month}:{day}, without zero padding.
//
// Example:
//
//	history:2:29
func FeedKey(month, day int) string {
	return fmt.Sprintf("history:%d:%d", month, day)
}
