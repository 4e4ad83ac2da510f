package util

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c, err := NewWithConfig(CacheConfig[string, int]{Capacity: 2})
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b survived eviction, want least recently used entry gone")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = (%d, %v), want (1, true)", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c, err := NewWithConfig(CacheConfig[string, int]{Capacity: 4, TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}

	c.Put("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("fresh entry = (%d, %v)", v, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry still returned")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

func TestLRUCacheUpdateRefreshesTTL(t *testing.T) {
	c, err := NewWithConfig(CacheConfig[string, int]{Capacity: 4, TTL: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}

	c.Put("k", 1)
	time.Sleep(20 * time.Millisecond)
	c.Put("k", 2)
	time.Sleep(20 * time.Millisecond)

	// 40ms after the first put but only 20ms after the refresh.
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Fatalf("refreshed entry = (%d, %v), want (2, true)", v, ok)
	}
}

func TestLRUCacheRejectsNoCapacity(t *testing.T) {
	if _, err := NewWithConfig(CacheConfig[string, int]{}); err == nil {
		t.Fatal("expected an error for zero capacity")
	}
}

func TestLRUCacheRemove(t *testing.T) {
	c, _ := NewWithConfig(CacheConfig[string, int]{Capacity: 4})
	c.Put("k", 1)
	c.Remove("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("removed entry still present")
	}
}
