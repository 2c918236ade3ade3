package lru

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](3, time.Minute)

	c.Set("a", 1, 0)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	evictions := 0
	c := New[string, int](2, 0, WithEvictHook(func() { evictions++ }))

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a") // a is now most recently used
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
	if evictions != 1 {
		t.Errorf("evictions = %d, want 1", evictions)
	}
}

func TestCache_PeekDoesNotTouch(t *testing.T) {
	c := New[string, int](2, 0)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Peek("a")
	c.Set("c", 3, 0)

	if _, ok := c.Get("a"); ok {
		t.Error("Peek must not promote a; it should have been evicted")
	}
}

func TestCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, string](10, 5*time.Minute, WithClock(clock.Now))

	c.Set("default", "x", 0)
	c.Set("long", "y", 24*time.Hour)

	clock.Advance(5*time.Minute - time.Second)
	if _, ok := c.Get("default"); !ok {
		t.Fatal("entry should still be fresh just before its TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("default"); ok {
		t.Error("entry should expire at its TTL")
	}
	if c.Len() != 1 {
		t.Errorf("expired entry should be purged on read, Len() = %d", c.Len())
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("entry with explicit TTL should outlive the default")
	}
}

func TestCache_SetReplaces(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New[string, int](2, time.Minute, WithClock(clock.Now))

	c.Set("k", 1, 0)
	clock.Advance(50 * time.Second)
	c.Set("k", 2, 0)
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	if !ok || got != 2 {
		t.Errorf("Get(k) = %d, %v; want refreshed value 2", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_DeleteAndPurge(t *testing.T) {
	c := New[int, int](10, 0)
	for i := 0; i < 5; i++ {
		c.Set(i, i, 0)
	}

	c.Delete(2)
	if _, ok := c.Get(2); ok {
		t.Error("deleted key still present")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d, want 0", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New[string, int](50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Set(key, i, 0)
				c.Get(key)
				if i%10 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds capacity 50", c.Len())
	}
}
