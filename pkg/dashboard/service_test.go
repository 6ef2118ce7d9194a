package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

type stubStore struct {
	frame   *frame.Frame
	err     error
	selects int
	closed  bool
}

func (s *stubStore) Upsert(ctx context.Context, item models.MenuItem) error { return nil }

func (s *stubStore) SelectAll(ctx context.Context) (*frame.Frame, error) {
	s.selects++
	return s.frame, s.err
}

func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

func TestService_Render_MissingConfiguration(t *testing.T) {
	svc := NewService(func(ctx context.Context) (store.MenuStore, error) {
		return store.New(ctx, config.StoreConfig{Driver: config.DriverSupabase}, zap.NewNop())
	}, Options{Driver: config.DriverSupabase, CachePolicy: DefaultFetchCachePolicy()}, zap.NewNop())

	v := svc.Render(context.Background(), Filters{}, "")

	assert.Equal(t, "Missing SUPABASE_URL or SUPABASE_KEY in environment.", v.Error)
	assert.Equal(t, emptyWarning, v.Warning)
	assert.Equal(t, "Rows fetched: 0 | Columns: []", v.Caption)
}

func TestService_Render_FetchError(t *testing.T) {
	st := &stubStore{err: errors.New("select chickfila_menu: 401 Unauthorized: Invalid API key")}
	svc := NewService(func(ctx context.Context) (store.MenuStore, error) { return st, nil },
		Options{Driver: config.DriverSupabase, CachePolicy: DefaultFetchCachePolicy()}, zap.NewNop())

	v := svc.Render(context.Background(), Filters{}, "")
	assert.Equal(t, "Error fetching data from Supabase: select chickfila_menu: 401 Unauthorized: Invalid API key", v.Error)
	assert.True(t, v.Empty())

	st.err = nil
	st.frame = menuFrame()
	v = svc.Render(context.Background(), Filters{}, "")
	assert.Empty(t, v.Error)
	assert.Equal(t, 5, v.Metrics[0].Value)
	assert.Equal(t, 2, st.selects)
}

func TestService_Render_UsesCache(t *testing.T) {
	st := &stubStore{frame: menuFrame()}
	opens := 0
	svc := NewService(func(ctx context.Context) (store.MenuStore, error) {
		opens++
		return st, nil
	}, Options{Driver: config.DriverSQLite, CachePolicy: DefaultFetchCachePolicy()}, zap.NewNop())

	_ = svc.Render(context.Background(), Filters{}, "")
	v := svc.Render(context.Background(), Filters{VegetarianOnly: true}, "")

	assert.Equal(t, 1, st.selects)
	assert.Equal(t, 1, opens)
	assert.Len(t, v.Table.Rows, 3)

	svc.Invalidate()
	_ = svc.Render(context.Background(), Filters{}, "")
	assert.Equal(t, 2, st.selects)

	require.NoError(t, svc.Close())
	assert.True(t, st.closed)
}

func TestService_Render_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.db")
	svc := NewService(func(ctx context.Context) (store.MenuStore, error) {
		return store.OpenSQLiteStore(ctx, path, zap.NewNop())
	}, Options{Driver: config.DriverSQLite, CachePolicy: DefaultFetchCachePolicy()}, zap.NewNop())
	defer svc.Close()

	v := svc.Render(context.Background(), Filters{}, "")
	assert.Empty(t, v.Error)
	assert.True(t, v.Empty())
	assert.Contains(t, v.Caption, "'allergens'")
}
