package services

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs KeyValueStore with Redis so cached extractions survive
// restarts and are shared across instances. Selected by setting REDIS_URL.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache connects to Redis using a redis:// URL. The connection is
// verified with a ping before the cache is returned.
func NewRedisCache(redisURL string, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("✅ Connected to Redis cache at %s", opts.Addr)
	return &RedisCache{client: client, defaultTTL: defaultTTL}, nil
}

// Set stores a value with the given TTL. Non-positive TTLs are stored
// pre-expired to match the in-memory backend, which Redis expresses as a
// 1ms expiry.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	if err := c.client.Set(context.Background(), key, value, ttl).Err(); err != nil {
		log.Printf("⚠️ Redis SET failed for %s: %v", key, err)
	}
}

// SetDefault stores a value with the default TTL.
func (c *RedisCache) SetDefault(key string, value []byte) {
	c.Set(key, value, c.defaultTTL)
}

// Get returns the value if present.
func (c *RedisCache) Get(key string) ([]byte, bool) {
	value, err := c.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("⚠️ Redis GET failed for %s: %v", key, err)
		return nil, false
	}
	return value, true
}

// Delete removes a single entry.
func (c *RedisCache) Delete(key string) {
	if err := c.client.Del(context.Background(), key).Err(); err != nil {
		log.Printf("⚠️ Redis DEL failed for %s: %v", key, err)
	}
}

// Clear flushes the database.
func (c *RedisCache) Clear() {
	if err := c.client.FlushDB(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Redis FLUSHDB failed: %v", err)
	}
}

// Size returns the number of keys in the database.
func (c *RedisCache) Size() int {
	n, err := c.client.DBSize(context.Background()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Cleanup is a no-op: Redis expires keys natively.
func (c *RedisCache) Cleanup() {}
