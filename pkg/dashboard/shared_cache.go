package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

// SharedCache holds a fetch where several dashboard processes can see it.
// It sits behind the in-process cache: a local miss checks it before the
// store is queried.
type SharedCache interface {
	Load(ctx context.Context) (*frame.Frame, bool, error)
	Save(ctx context.Context, f *frame.Frame, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// RedisCache is a SharedCache backed by Redis. Entries expire with the
// fetch cache TTL.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache stores the menu table fetch under a fixed key.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: "menu-etl:rows:" + models.MenuTable}
}

// Load returns the shared fetch, if present.
func (c *RedisCache) Load(ctx context.Context) (*frame.Frame, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	f, err := frame.FromSnapshot(data)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// Save writes f with the given TTL.
func (c *RedisCache) Save(ctx context.Context, f *frame.Frame, ttl time.Duration) error {
	data, err := f.Snapshot()
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

// Clear removes the shared fetch.
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key, err)
	}
	return nil
}
