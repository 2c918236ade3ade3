package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Sternrassler/chronos/pkg/feed"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleFeed(text string) feed.Feed {
	year := 1969
	return feed.Feed{
		Events: []feed.Event{{Year: &year, Text: text, Pages: []feed.Page{{Title: "Apollo_11"}}}},
		Births: []feed.Event{},
		Deaths: []feed.Event{},
	}
}

func TestFeedKey(t *testing.T) {
	tests := []struct {
		month, day int
		want       string
	}{
		{2, 29, "history:2:29"},
		{12, 1, "history:12:1"},
		{1, 31, "history:1:31"},
	}

	for _, tt := range tests {
		if got := FeedKey(tt.month, tt.day); got != tt.want {
			t.Errorf("FeedKey(%d, %d) = %q, want %q", tt.month, tt.day, got, tt.want)
		}
	}

	if FeedKey(7, 20) != FeedKey(7, 20) {
		t.Error("FeedKey must be deterministic")
	}
}

func TestMemory_SetAndGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, FeedKey(7, 20), sampleFeed("Moon landing"), StrategyHistoryData); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, FeedKey(7, 20))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Events[0].Text != "Moon landing" {
		t.Errorf("Text = %q, want %q", got.Events[0].Text, "Moon landing")
	}
}

func TestMemory_Get_CacheMiss(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "history:1:1")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	key := FeedKey(7, 20)

	original := sampleFeed("original")
	if err := store.Set(ctx, key, original, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	original.Events[0].Text = "mutated after set"

	first, _ := store.Get(ctx, key)
	first.Events[0].Text = "mutated by reader"
	first.Events[0].Pages[0].Title = "mutated"

	second, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second.Events[0].Text != "original" {
		t.Errorf("stored entry was mutated: Text = %q", second.Events[0].Text)
	}
	if second.Events[0].Pages[0].Title != "Apollo_11" {
		t.Errorf("stored entry was mutated: Title = %q", second.Events[0].Pages[0].Title)
	}
}

func TestMemory_TTL(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)}
	store := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	_ = store.Set(ctx, "short", sampleFeed("a"), 0)
	_ = store.Set(ctx, "day", sampleFeed("b"), StrategyHistoryData)

	clock.Advance(DefaultTTL)
	if _, err := store.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("default TTL entry should expire after %v, got err=%v", DefaultTTL, err)
	}
	if _, err := store.Get(ctx, "day"); err != nil {
		t.Errorf("24h entry should still be cached: %v", err)
	}

	clock.Advance(StrategyHistoryData)
	if _, err := store.Get(ctx, "day"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("24h entry should expire, got err=%v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired entries should be purged on read, Len() = %d", store.Len())
	}
}

func TestMemory_CapacityEviction(t *testing.T) {
	store := NewMemory(WithMaxEntries(3))
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		_ = store.Set(ctx, FeedKey(1, day), sampleFeed(fmt.Sprint(day)), StrategyHistoryData)
	}
	// Touch day 1 so day 2 becomes least recently used.
	if _, err := store.Get(ctx, FeedKey(1, 1)); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	_ = store.Set(ctx, FeedKey(1, 4), sampleFeed("4"), StrategyHistoryData)

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
	if _, err := store.Get(ctx, FeedKey(1, 2)); !errors.Is(err, ErrCacheMiss) {
		t.Error("least recently used entry should have been evicted")
	}
	for _, day := range []int{1, 3, 4} {
		if _, err := store.Get(ctx, FeedKey(1, day)); err != nil {
			t.Errorf("day %d should still be cached: %v", day, err)
		}
	}
}

func TestMemory_DeleteAndInvalidate(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		_ = store.Set(ctx, FeedKey(3, day), sampleFeed("x"), 0)
	}

	if err := store.Delete(ctx, FeedKey(3, 1)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete of absent key should not fail: %v", err)
	}
	if _, err := store.Get(ctx, FeedKey(3, 1)); !errors.Is(err, ErrCacheMiss) {
		t.Error("deleted entry still present")
	}

	// Coarse invalidation ignores the pattern.
	if err := store.InvalidatePattern(ctx, "history:12:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("InvalidatePattern should clear everything, Len() = %d", store.Len())
	}

	_ = store.Set(ctx, FeedKey(4, 1), sampleFeed("y"), 0)
	if err := store.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after InvalidateAll = %d, want 0", store.Len())
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemory(WithMaxEntries(20))
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := FeedKey(1+(g+i)%12, 1+i%28)
				_ = store.Set(ctx, key, sampleFeed(key), StrategyHistoryData)
				if f, err := store.Get(ctx, key); err == nil {
					f.Events[0].Text = "scribble"
				}
			}
		}(g)
	}
	wg.Wait()

	if store.Len() > 20 {
		t.Errorf("Len() = %d exceeds capacity", store.Len())
	}
}

func TestEntry_IsExpired(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	stale := &Entry{Expires: time.Now().Add(-time.Minute)}

	if fresh.IsExpired() {
		t.Error("fresh entry reported expired")
	}
	if fresh.TTL() <= 0 {
		t.Error("fresh entry should have positive TTL")
	}
	if !stale.IsExpired() {
		t.Error("stale entry reported fresh")
	}
	if stale.TTL() != 0 {
		t.Errorf("stale TTL = %v, want 0", stale.TTL())
	}
}
