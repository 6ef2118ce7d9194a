package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

const menuJSON = `[
  {
    "id": "x",
    "name": "Fries",
    "category": "sides",
    "price": "$2.50",
    "calories": "360",
    "allergens": ["wheat"],
    "is_vegetarian": true,
    "is_gluten_free": false,
    "source_url": "https://www.chick-fil-a.com/menu/sides",
    "extracted_at": "2024-05-01T12:00:00.123456"
  },
  {
    "id": "y",
    "name": "Fruit Cup",
    "category": "sides",
    "calories": "60 Cal",
    "allergens": "",
    "is_vegetarian": true,
    "is_gluten_free": true
  }
]`

// failingStore rejects items whose id is in reject.
type failingStore struct {
	reject   map[string]bool
	upserted []models.MenuItem
}

func (s *failingStore) Upsert(ctx context.Context, item models.MenuItem) error {
	if s.reject[item.ID] {
		return errors.New("duplicate key value violates constraint")
	}
	s.upserted = append(s.upserted, item)
	return nil
}

func (s *failingStore) SelectAll(ctx context.Context) (*frame.Frame, error) {
	return frame.Empty(), nil
}

func (s *failingStore) Close() error { return nil }

func writeMenu(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Run_IsolatesFailures(t *testing.T) {
	s := &failingStore{reject: map[string]bool{"x": true}}
	l := New(s, writeMenu(t, menuJSON), zap.NewNop())

	var seen []string
	result, err := l.Run(context.Background(), func(item models.MenuItem, err error) {
		status := "ok"
		if err != nil {
			status = "fail"
		}
		seen = append(seen, item.ID+":"+status)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "x", result.Failures[0].ID)
	assert.Equal(t, "Fries", result.Failures[0].Name)
	assert.Equal(t, []string{"x:fail", "y:ok"}, seen)
	require.Len(t, s.upserted, 1)
	assert.NotNil(t, s.upserted[0].UpdatedAt)
}

func TestLoader_Run_StampsUpdatedAt(t *testing.T) {
	s := &failingStore{}
	l := New(s, writeMenu(t, menuJSON), zap.NewNop())
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	_, err := l.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, s.upserted, 2)
	for _, item := range s.upserted {
		require.NotNil(t, item.UpdatedAt)
		assert.True(t, item.UpdatedAt.Equal(fixed))
	}
	require.NotNil(t, s.upserted[0].ExtractedAt)
	extracted := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.Local)
	assert.True(t, s.upserted[0].ExtractedAt.Equal(extracted))
}

func TestLoader_Run_IsolatesMalformedRecords(t *testing.T) {
	s := &failingStore{}
	l := New(s, writeMenu(t, `[
  {"id": "a", "name": "Fries", "extracted_at": "last tuesday"},
  {"id": "b", "name": "Nuggets", "calories": 230, "is_vegetarian": "false", "is_gluten_free": "yes"},
  42
]`), zap.NewNop())

	var failed []string
	result, err := l.Run(context.Background(), func(item models.MenuItem, err error) {
		if err != nil {
			failed = append(failed, item.DisplayName())
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Successful)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "a", result.Failures[0].ID)
	assert.ErrorIs(t, result.Failures[0].Err, apperrors.ErrInvalidInput)
	assert.Contains(t, result.Failures[0].Err.Error(), "extracted_at")
	assert.Equal(t, "unknown", result.Failures[1].Name)
	assert.Equal(t, []string{"Fries", "unknown"}, failed)

	require.Len(t, s.upserted, 1)
	loaded := s.upserted[0]
	assert.Equal(t, "b", loaded.ID)
	assert.Equal(t, "230", loaded.Calories)
	assert.False(t, loaded.IsVegetarian)
	assert.True(t, loaded.IsGlutenFree)
	assert.NotNil(t, loaded.UpdatedAt)
}

func TestLoader_Run_MissingFileAborts(t *testing.T) {
	s := &failingStore{}
	l := New(s, filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	_, err := l.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, s.upserted)
}

func TestLoader_Run_MalformedFileAborts(t *testing.T) {
	s := &failingStore{}
	l := New(s, writeMenu(t, `{"id": "x"}`), zap.NewNop())

	_, err := l.Run(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, s.upserted)
}

func TestLoader_Run_IdempotentOnSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "menu.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	path := writeMenu(t, menuJSON)
	l := New(s, path, zap.NewNop())

	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	_, err = l.Run(ctx, nil)
	require.NoError(t, err)

	first, err := s.SelectAll(ctx)
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	result, err := l.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)

	second, err := s.SelectAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, second.Len())

	for i, row := range second.Rows {
		before := first.Rows[i]
		assert.Equal(t, before["id"], row["id"])
		for _, col := range second.Columns {
			if col == "updated_at" {
				continue
			}
			assert.Equal(t, before[col], row[col], "column %s of %v", col, row["id"])
		}
		assert.Equal(t, "2024-06-01T00:00:00Z", before["updated_at"])
		assert.Equal(t, "2024-06-01T01:00:00Z", row["updated_at"])
	}
}
