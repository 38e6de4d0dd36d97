package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gstfiling/internal/domain"
)

// RedisCache stores entries as JSON strings under report:<kind>:<key>.
// Entries carry no TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, prefix: "report"}
}

func (c *RedisCache) key(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, kind, key)
}

// Get implements port.ReportCache.
func (c *RedisCache) Get(ctx context.Context, kind, key string) (*domain.Table, bool, error) {
	val, err := c.client.Get(ctx, c.key(kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var t domain.Table
	if err := json.Unmarshal(val, &t); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s/%s: %w", kind, key, err)
	}
	return &t, true, nil
}

// Put implements port.ReportCache.
func (c *RedisCache) Put(ctx context.Context, kind, key string, t *domain.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(kind, key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
