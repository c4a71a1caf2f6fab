package services

import (
	"log"
	"sync"
	"time"
)

// KeyValueStore is the cache contract shared by the in-memory and Redis
// backends. Values are opaque bytes; callers serialize on their side.
type KeyValueStore interface {
	Set(key string, value []byte, ttl time.Duration)
	SetDefault(key string, value []byte)
	Get(key string) ([]byte, bool)
	Delete(key string)
	Clear()
	Size() int
	Cleanup()
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded in-process cache with per-entry TTL.
// Expired entries are dropped lazily on Get and in bulk by Cleanup, which
// the scheduler runs periodically.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemoryCache creates a cache with the given default TTL.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Set stores a value. A non-positive ttl expires the entry immediately, so
// the next Get misses.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// SetDefault stores a value with the cache's default TTL.
func (c *MemoryCache) SetDefault(key string, value []byte) {
	c.Set(key, value, c.defaultTTL)
}

// Get returns the value if present and not expired. Expired entries are
// removed on the way out.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(c.now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Size returns the number of stored entries, expired ones included until
// the next sweep.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes every expired entry.
func (c *MemoryCache) Cleanup() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Cache cleanup removed %d expired entries (%d remaining)", removed, len(c.entries))
	}
}
