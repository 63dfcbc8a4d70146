// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"subtrack-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// UsageKeyPrefix prefixes the cached usage snapshot of each user.
const UsageKeyPrefix = "usage:"

// RedisClient caches per-user usage counters for entitlement checks.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// CachedUsageEntries counts users whose usage snapshot is cached.
func (c *RedisClient) CachedUsageEntries(ctx context.Context) (int, error) {
	n := 0
	iter := c.Client.Scan(ctx, 0, UsageKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan usage keys: %w", err)
	}
	return n, nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
