// Package viewcache caches rendered view payloads for the public read
// endpoints. Mutations invalidate the affected keys; a miss just falls
// through to the store.
package viewcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listingKey     = "view:listing"
	datesKey       = "view:dates"
	entryKeyPrefix = "view:entry:"
)

// RedisCache implements view caching over Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheWithClient creates a cache from an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func entryKey(slug string) string {
	return entryKeyPrefix + slug
}

// GetListing returns the cached listing payload, or ok=false on a miss.
func (c *RedisCache) GetListing(ctx context.Context) ([]byte, bool) {
	return c.get(ctx, listingKey)
}

func (c *RedisCache) SetListing(ctx context.Context, payload []byte) error {
	return c.set(ctx, listingKey, payload)
}

func (c *RedisCache) GetEntry(ctx context.Context, slug string) ([]byte, bool) {
	return c.get(ctx, entryKey(slug))
}

func (c *RedisCache) SetEntry(ctx context.Context, slug string, payload []byte) error {
	return c.set(ctx, entryKey(slug), payload)
}

func (c *RedisCache) GetDates(ctx context.Context) ([]byte, bool) {
	return c.get(ctx, datesKey)
}

func (c *RedisCache) SetDates(ctx context.Context, payload []byte) error {
	return c.set(ctx, datesKey, payload)
}

// InvalidateListing drops the listing and dates views. Creates and deletes
// change both.
func (c *RedisCache) InvalidateListing(ctx context.Context) error {
	if err := c.client.Del(ctx, listingKey, datesKey).Err(); err != nil {
		return fmt.Errorf("invalidate listing view: %w", err)
	}
	return nil
}

// InvalidateEntry drops a single entry's detail view.
func (c *RedisCache) InvalidateEntry(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, entryKey(slug)).Err(); err != nil {
		return fmt.Errorf("invalidate entry view %s: %w", slug, err)
	}
	return nil
}

func (c *RedisCache) get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *RedisCache) set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache view %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
