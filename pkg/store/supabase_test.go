package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/models"
)

func TestSupabaseStore_Upsert(t *testing.T) {
	var (
		method, path, onConflict, prefer, apikey, auth string
		body                                           map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		onConflict = r.URL.Query().Get("on_conflict")
		prefer = r.Header.Get("Prefer")
		apikey = r.Header.Get("apikey")
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewSupabaseStore(server.URL+"/", "anon-key", zap.NewNop())
	updated := models.NewTimestamp(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))

	err := s.Upsert(context.Background(), models.MenuItem{
		ID:           "x",
		Name:         "Fries",
		Allergens:    json.RawMessage(`["wheat"]`),
		IsVegetarian: true,
		UpdatedAt:    updated,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/rest/v1/chickfila_menu", path)
	assert.Equal(t, "id", onConflict)
	assert.Contains(t, prefer, "resolution=merge-duplicates")
	assert.Equal(t, "anon-key", apikey)
	assert.Equal(t, "Bearer anon-key", auth)
	assert.Equal(t, "x", body["id"])
	assert.Equal(t, []any{"wheat"}, body["allergens"])
	assert.Equal(t, true, body["is_vegetarian"])
	assert.Equal(t, "2024-05-02T08:00:00Z", body["updated_at"])
}

func TestSupabaseStore_Upsert_ReportsPostgRESTError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"42501","message":"new row violates row-level security policy"}`))
	}))
	defer server.Close()

	s := NewSupabaseStore(server.URL, "anon-key", zap.NewNop())

	err := s.Upsert(context.Background(), models.MenuItem{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row-level security")
	assert.Contains(t, err.Error(), "42501")
}

func TestSupabaseStore_SelectAll(t *testing.T) {
	var selectParam string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		selectParam = r.URL.Query().Get("select")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"x","name":"Fries","category":"sides","calories":"360","allergens":["wheat"],"is_vegetarian":true},
			{"id":"y","name":"Fruit Cup","category":"sides","calories":null,"allergens":"","is_vegetarian":true}
		]`))
	}))
	defer server.Close()

	s := NewSupabaseStore(server.URL, "anon-key", zap.NewNop())

	f, err := s.SelectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "*", selectParam)
	assert.Equal(t, []string{"id", "name", "category", "calories", "allergens", "is_vegetarian"}, f.Columns)
	require.Equal(t, 2, f.Len())
	assert.Nil(t, f.Rows[1]["calories"])
	assert.Equal(t, true, f.Rows[0]["is_vegetarian"])
}

func TestSupabaseStore_SelectAll_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"relation \"public.chickfila_menu\" does not exist"}`))
	}))
	defer server.Close()

	s := NewSupabaseStore(server.URL, "anon-key", zap.NewNop())

	_, err := s.SelectAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
