package flagkit

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is the pluggable storage backend a Repository uses to persist
// the last successfully fetched feature payload (decrypted, still raw
// JSON bytes of the features object itself, without the enclosing
// {"features": ...} envelope) across process
// restarts (spec §4.6's cache-backed warm start). Storing raw bytes
// rather than a decoded FeatureMap sidesteps round-tripping the
// internal condition tree through JSON a second time. Get returning
// (nil, false, nil) means "no entry" and is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// memoryCache is the default Cache: process-local, no persistence.
// Grounded on the repository's in-process maps elsewhere in this
// package rather than any single teacher file — a bare map guarded by
// a mutex is the idiom this corpus reaches for whenever a cache has no
// remote backend to speak to.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache returns the in-memory Cache used when no Cache option
// is supplied.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.entries[key]
	return payload, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

// RedisCache shares a feature cache across process instances, so a
// fleet of services behind the same client key doesn't each hammer the
// CDN independently on cold start.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing go-redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, payload, ttl).Err()
}
