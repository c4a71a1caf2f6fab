package services

import (
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)

	cache.Set("k", []byte("v"), time.Minute)
	got, found := cache.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, found)
	}

	if _, found := cache.Get("missing"); found {
		t.Error("missing key reported as found")
	}
}

func TestMemoryCacheZeroTTLMissesImmediately(t *testing.T) {
	cache := NewMemoryCache(time.Minute)

	cache.Set("k", []byte("v"), 0)
	if _, found := cache.Get("k"); found {
		t.Error("entry stored with ttl=0 must miss on the next Get")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("k", []byte("v"), 10*time.Second)
	if _, found := cache.Get("k"); !found {
		t.Fatal("entry should be present before expiry")
	}

	now = now.Add(11 * time.Second)
	if _, found := cache.Get("k"); found {
		t.Error("entry should be gone after TTL elapses")
	}
	if cache.Size() != 0 {
		t.Errorf("lazy expiry should have removed the entry, size = %d", cache.Size())
	}
}

func TestMemoryCacheCleanup(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("expired-1", []byte("a"), 5*time.Second)
	cache.Set("expired-2", []byte("b"), 5*time.Second)
	cache.Set("alive", []byte("c"), time.Hour)

	now = now.Add(10 * time.Second)
	cache.Cleanup()

	if cache.Size() != 1 {
		t.Errorf("size after cleanup = %d, want 1", cache.Size())
	}
	if _, found := cache.Get("alive"); !found {
		t.Error("unexpired entry was swept")
	}
}

func TestMemoryCacheSetDefault(t *testing.T) {
	cache := NewMemoryCache(30 * time.Second)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.SetDefault("k", []byte("v"))

	now = now.Add(29 * time.Second)
	if _, found := cache.Get("k"); !found {
		t.Error("entry should survive within the default TTL")
	}
	now = now.Add(2 * time.Second)
	if _, found := cache.Get("k"); found {
		t.Error("entry should expire after the default TTL")
	}
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	cache := NewMemoryCache(time.Minute)

	cache.Set("a", []byte("1"), time.Minute)
	cache.Set("b", []byte("2"), time.Minute)

	cache.Delete("a")
	if _, found := cache.Get("a"); found {
		t.Error("deleted key still present")
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("size after Clear = %d", cache.Size())
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	cache := NewMemoryCache(time.Minute)

	cache.Set("k", []byte("old"), time.Minute)
	cache.Set("k", []byte("new"), time.Minute)

	got, _ := cache.Get("k")
	if string(got) != "new" {
		t.Errorf("Get = %q, want new value", got)
	}
}
