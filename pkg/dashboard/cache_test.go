package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
)

type countingFetcher struct {
	calls int
	err   error
	rows  int
}

func (c *countingFetcher) fetch(ctx context.Context) (*frame.Frame, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	rows := make([]frame.Row, c.rows)
	for i := range rows {
		rows[i] = frame.Row{"id": i}
	}
	return frame.New([]string{"id"}, rows), nil
}

func TestCache_ReusesFetchWithinTTL(t *testing.T) {
	fetcher := &countingFetcher{rows: 2}
	cache := NewCache(DefaultFetchCachePolicy(), fetcher.fetch, zap.NewNop())

	f, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.Len())

	fetcher.rows = 5
	f, hit, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, fetcher.calls)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	fetcher := &countingFetcher{rows: 1}
	cache := NewCache(FetchCachePolicy{TTL: 20 * time.Millisecond}, fetcher.fetch, zap.NewNop())

	_, _, err := cache.Get(context.Background())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := NewCache(DefaultFetchCachePolicy(), fetcher.fetch, zap.NewNop())

	_, _, err := cache.Get(context.Background())
	require.Error(t, err)

	fetcher.err = nil
	fetcher.rows = 3
	f, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &countingFetcher{rows: 1}
	cache := NewCache(DefaultFetchCachePolicy(), fetcher.fetch, zap.NewNop())

	_, _, _ = cache.Get(context.Background())
	cache.Invalidate()
	_, hit, _ := cache.Get(context.Background())

	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_ZeroTTLDisablesCaching(t *testing.T) {
	fetcher := &countingFetcher{rows: 1}
	cache := NewCache(FetchCachePolicy{}, fetcher.fetch, zap.NewNop())

	_, _, _ = cache.Get(context.Background())
	_, hit, _ := cache.Get(context.Background())

	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.calls)
}

// memoryShared is an in-memory SharedCache standing in for Redis.
type memoryShared struct {
	frame   *frame.Frame
	ttl     time.Duration
	saves   int
	clears  int
	loadErr error
}

func (m *memoryShared) Load(ctx context.Context) (*frame.Frame, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	return m.frame, m.frame != nil, nil
}

func (m *memoryShared) Save(ctx context.Context, f *frame.Frame, ttl time.Duration) error {
	m.frame = f
	m.ttl = ttl
	m.saves++
	return nil
}

func (m *memoryShared) Clear(ctx context.Context) error {
	m.frame = nil
	m.clears++
	return nil
}

func TestCache_SharedLevelServesOtherProcesses(t *testing.T) {
	shared := &memoryShared{}

	first := &countingFetcher{rows: 3}
	cacheA := NewCache(DefaultFetchCachePolicy(), first.fetch, zap.NewNop()).WithShared(shared)
	_, hit, err := cacheA.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, shared.saves)
	assert.Equal(t, time.Hour, shared.ttl)

	second := &countingFetcher{rows: 9}
	cacheB := NewCache(DefaultFetchCachePolicy(), second.fetch, zap.NewNop()).WithShared(shared)
	f, hit, err := cacheB.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, f.Len())
	assert.Zero(t, second.calls, "shared hit skips the store")
}

func TestCache_SharedErrorsFallBackToFetch(t *testing.T) {
	shared := &memoryShared{loadErr: errors.New("connection refused")}
	fetcher := &countingFetcher{rows: 2}
	cache := NewCache(DefaultFetchCachePolicy(), fetcher.fetch, zap.NewNop()).WithShared(shared)

	f, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, fetcher.calls)
}

func TestCache_InvalidateClearsShared(t *testing.T) {
	shared := &memoryShared{}
	fetcher := &countingFetcher{rows: 1}
	cache := NewCache(DefaultFetchCachePolicy(), fetcher.fetch, zap.NewNop()).WithShared(shared)

	_, _, err := cache.Get(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	assert.Equal(t, 1, shared.clears)

	_, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_SharedIgnoredWhenCachingDisabled(t *testing.T) {
	shared := &memoryShared{frame: frame.New([]string{"id"}, []frame.Row{{"id": 1}})}
	fetcher := &countingFetcher{rows: 4}
	cache := NewCache(FetchCachePolicy{TTL: 0}, fetcher.fetch, zap.NewNop()).WithShared(shared)

	f, hit, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, f.Len())
	assert.Zero(t, shared.saves)
}
