// Package rediscache stores embeddings in redis with a TTL.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/intentbot/vector"
)

// DefaultTTL is how long an embedding stays cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a redis-backed embedding cache. Keys are "emb:" + key.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open connects to addr and pings the server.
func Open(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: ping %s: %w", addr, err)
	}
	return New(rdb, ttl), nil
}

// New wraps an existing client. ttl <= 0 uses DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// RedisKey returns the redis key for a cache key.
func RedisKey(key string) string { return "emb:" + key }

// Get returns the embedding stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, RedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: get: %w", err)
	}
	vec, err := vector.DecodeEmbedding(data)
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: get: %w", err)
	}
	return vec, vec != nil, nil
}

// Put stores vec under key.
func (c *Cache) Put(ctx context.Context, key string, vec []float32) error {
	data, err := vector.EncodeEmbedding(vec)
	if err != nil {
		return fmt.Errorf("rediscache: put: %w", err)
	}
	if err := c.rdb.Set(ctx, RedisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: put: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Cache) Close() error { return c.rdb.Close() }
