package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chatbot-api/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Cache is a redis-backed cache for JSON-encodable values. A miss and a
// backend failure look the same to callers; the source of truth is always
// the database.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
}

// New creates a cache from the application configuration
func New() *Cache {
	cfg := config.Get()

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
	})

	return &Cache{
		client:  client,
		ttl:     cfg.Cache.TTL,
		enabled: cfg.Cache.Enabled,
	}
}

// Disabled returns a cache that never stores anything. Useful where a cache
// is required but no backend is available.
func Disabled() *Cache {
	return &Cache{}
}

// GetJSON fetches a cached value into dest, reporting whether it was found
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.enabled {
		return false
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Stale or corrupt entry, drop it
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores a value under key with the configured TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	if !c.enabled {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Delete removes a key from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}

	err := c.client.Del(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping checks connectivity to the cache backend
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
