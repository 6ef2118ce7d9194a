package dashboard

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

// FetchCachePolicy controls how long a full-table fetch is reused.
// There is no invalidation on writes: a load shows up once the entry expires
// or Invalidate is called. A TTL <= 0 disables caching.
type FetchCachePolicy struct {
	TTL time.Duration
}

// DefaultFetchCachePolicy keeps a fetch for one hour.
func DefaultFetchCachePolicy() FetchCachePolicy {
	return FetchCachePolicy{TTL: time.Hour}
}

// Fetcher reads every row of the menu table.
type Fetcher func(ctx context.Context) (*frame.Frame, error)

// sharedTimeout bounds every SharedCache call.
const sharedTimeout = 2 * time.Second

// Cache memoizes successful fetches under a FetchCachePolicy. Failed fetches
// are never cached, so the next render tries again.
type Cache struct {
	policy  FetchCachePolicy
	fetch   Fetcher
	entries *expirable.LRU[string, *frame.Frame]
	shared  SharedCache
	logger  *zap.Logger
}

// NewCache wraps fetch with policy.
func NewCache(policy FetchCachePolicy, fetch Fetcher, logger *zap.Logger) *Cache {
	c := &Cache{
		policy: policy,
		fetch:  fetch,
		logger: logger.Named("cache"),
	}
	if policy.TTL > 0 {
		c.entries = expirable.NewLRU[string, *frame.Frame](1, nil, policy.TTL)
	}
	return c
}

// WithShared adds a second cache level consulted on local misses. It is
// ignored when the policy disables caching. Shared cache errors are logged
// and never fail a Get.
func (c *Cache) WithShared(shared SharedCache) *Cache {
	if c.entries != nil {
		c.shared = shared
	}
	return c
}

// Get returns the cached rows or fetches them. hit reports whether the
// result came from a cache.
func (c *Cache) Get(ctx context.Context) (f *frame.Frame, hit bool, err error) {
	if c.entries != nil {
		if cached, ok := c.entries.Get(models.MenuTable); ok {
			return cached, true, nil
		}
	}

	if shared, ok := c.loadShared(ctx); ok {
		c.entries.Add(models.MenuTable, shared)
		return shared, true, nil
	}

	f, err = c.fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if c.entries != nil {
		c.entries.Add(models.MenuTable, f)
		c.saveShared(ctx, f)
		c.logger.Debug("Cached menu rows",
			zap.Int("rows", f.Len()),
			zap.Duration("ttl", c.policy.TTL))
	}
	return f, false, nil
}

// Invalidate drops the cached fetch, locally and in the shared cache.
func (c *Cache) Invalidate() {
	if c.entries != nil {
		c.entries.Purge()
	}
	if c.shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sharedTimeout)
	defer cancel()
	if err := c.shared.Clear(ctx); err != nil {
		c.logger.Warn("Failed to clear shared cache", zap.Error(err))
	}
}

func (c *Cache) loadShared(ctx context.Context) (*frame.Frame, bool) {
	if c.shared == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	f, ok, err := c.shared.Load(ctx)
	if err != nil {
		c.logger.Warn("Failed to read shared cache", zap.Error(err))
		return nil, false
	}
	if ok {
		c.logger.Debug("Menu rows from shared cache", zap.Int("rows", f.Len()))
	}
	return f, ok
}

func (c *Cache) saveShared(ctx context.Context, f *frame.Frame) {
	if c.shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	if err := c.shared.Save(ctx, f, c.policy.TTL); err != nil {
		c.logger.Warn("Failed to write shared cache", zap.Error(err))
	}
}
