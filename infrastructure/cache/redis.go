package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"learnboard/application/ports"
)

// RedisCache stores values in Redis under a common key prefix.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	logger *zap.Logger
}

var _ ports.Cache = (*RedisCache)(nil)

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisCache creates a cache on client.
func NewRedisCache(client redis.Cmdable, prefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get reports a miss for absent keys and for Redis failures; the latter are
// logged.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Redis get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores value with ttl. A non-positive ttl keeps it until deleted.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Incr atomically increments the counter at key.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Incr(ctx, c.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}
