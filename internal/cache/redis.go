// Package cache is a small JSON cache on top of Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/diewo77/festakit/internal/config"
)

var (
	ErrDisabled = errors.New("cache is disabled")
	ErrMiss     = errors.New("key not found in cache")
)

// Keys used by the application.
const (
	KeyReferenceData = "catalog:reference"
)

// RedisCache stores JSON values. A disabled cache misses on every Get and
// drops every Set, so callers never need to branch on configuration.
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache connects and pings when cfg.Enabled.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return &RedisCache{client: client, enabled: true}, nil
}

// Disabled returns a cache that stores nothing.
func Disabled() *RedisCache {
	return &RedisCache{}
}

// Enabled reports whether values are actually stored.
func (c *RedisCache) Enabled() bool {
	return c != nil && c.enabled
}

// Get decodes the value at key into dst.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return errors.Wrap(err, "failed to get value from Redis")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}
	return nil
}

// Set stores value at key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}
	return nil
}

// Delete removes keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete keys from Redis")
	}
	return nil
}

// Ping checks the connection. A disabled cache is always healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return errors.Wrap(c.client.Ping(ctx).Err(), "redis ping")
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
