package cache

import (
	"testing"
	"time"
)

func TestTTLCacheGetSetDelete(t *testing.T) {
	c := NewTTLCache[bool](4, time.Minute)

	if _, ok := c.Get("a@example.com"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a@example.com", true)
	c.Set("b@example.com", false)

	if v, ok := c.Get("a@example.com"); !ok || !v {
		t.Fatalf("expected cached true, got %v %v", v, ok)
	}
	if v, ok := c.Get("b@example.com"); !ok || v {
		t.Fatalf("expected cached false, got %v %v", v, ok)
	}

	c.Delete("a@example.com")
	if _, ok := c.Get("a@example.com"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLCacheBounded(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)
	c.Set("one", 1)
	c.Set("two", 2)
	c.Set("three", 3)

	if c.Len() != 2 {
		t.Fatalf("expected size to stay at 2, got %d", c.Len())
	}
	if _, ok := c.Get("one"); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string](2, 20*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestTTLCacheReset(t *testing.T) {
	c := NewTTLCache[bool](2, time.Minute)
	c.Set("k", true)
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after reset, got %d", c.Len())
	}
}
