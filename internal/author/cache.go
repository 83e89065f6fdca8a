package author

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "author-style-v1-"
	defaultCacheTTL = time.Hour
	defaultLRUSize  = 256
)

// CacheKey is the storage key for an author's profile.
func CacheKey(name string) string { return cacheKeyPrefix + name }

// Cache stores profiles by author name. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, name string) (*Profile, error)
	Set(ctx context.Context, name string, p *Profile) error
}

// MemoryCache is an in-process expiring LRU.
type MemoryCache struct {
	lru *expirable.LRU[string, *Profile]
}

// NewMemoryCache creates a MemoryCache. Non-positive arguments use defaults.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = defaultLRUSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, *Profile](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, name string) (*Profile, error) {
	p, ok := c.lru.Get(CacheKey(name))
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (c *MemoryCache) Set(_ context.Context, name string, p *Profile) error {
	c.lru.Add(CacheKey(name), p.Clone())
	return nil
}

// RedisCache shares profiles between server instances.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache parses a redis:// URL and returns a cache backed by it.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opts), ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, name string) (*Profile, error) {
	raw, err := c.client.Get(ctx, CacheKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var p Profile
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, name string, p *Profile) error {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, CacheKey(name), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
