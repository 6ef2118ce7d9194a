package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

// SupabaseStore talks to a Supabase project's PostgREST endpoint.
type SupabaseStore struct {
	client *resty.Client
	logger *zap.Logger
}

// postgrestError is the error body PostgREST returns on non-2xx responses.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewSupabaseStore creates a store for the project at projectURL
// (e.g. https://abc.supabase.co) authenticated with key.
func NewSupabaseStore(projectURL, key string, logger *zap.Logger) *SupabaseStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(projectURL, "/")+"/rest/v1").
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SupabaseStore{
		client: client,
		logger: logger.Named("supabase"),
	}
}

// Upsert posts item with merge-duplicates resolution on the id column.
func (s *SupabaseStore) Upsert(ctx context.Context, item models.MenuItem) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("on_conflict", "id").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(item).
		Post("/" + models.MenuTable)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", item.ID, err)
	}
	if res.IsError() {
		return fmt.Errorf("upsert %s: %w", item.ID, responseError(res))
	}
	return nil
}

// SelectAll fetches every row of the menu table.
func (s *SupabaseStore) SelectAll(ctx context.Context) (*frame.Frame, error) {
	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		Get("/" + models.MenuTable)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, responseError(res))
	}

	f, err := frame.FromJSON(res.Body())
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}

	s.logger.Debug("Fetched menu rows", zap.Int("rows", f.Len()))
	return f, nil
}

// Close is a no-op; the REST client holds no connections worth releasing.
func (s *SupabaseStore) Close() error {
	return nil
}

func responseError(res *resty.Response) error {
	var body postgrestError
	if err := json.Unmarshal(res.Body(), &body); err == nil && body.Message != "" {
		if body.Code != "" {
			return fmt.Errorf("%s: %s (code %s)", res.Status(), body.Message, body.Code)
		}
		return fmt.Errorf("%s: %s", res.Status(), body.Message)
	}
	return fmt.Errorf("unexpected status %s", res.Status())
}
