// Package store reads and writes the remote menu table.
package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/config"
	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

// MenuStore is a table of menu items keyed by item id.
type MenuStore interface {
	// Upsert inserts item or overwrites every column of the row with the same id.
	Upsert(ctx context.Context, item models.MenuItem) error

	// SelectAll returns every row with whatever columns the table has.
	SelectAll(ctx context.Context) (*frame.Frame, error)

	// Close releases connections held by the store.
	Close() error
}

// Ensure stores implement MenuStore at compile time.
var (
	_ MenuStore = (*SupabaseStore)(nil)
	_ MenuStore = (*PostgresStore)(nil)
	_ MenuStore = (*SQLiteStore)(nil)
)

// menuColumns is the write order for upserts.
var menuColumns = []string{
	"id",
	"name",
	"category",
	"description",
	"price",
	"calories",
	"allergens",
	"is_vegetarian",
	"is_gluten_free",
	"source_url",
	"extracted_at",
	"updated_at",
}

// ConfigError reports missing connection settings for the selected driver.
// It matches apperrors.ErrMissingStoreConfig with errors.Is.
type ConfigError struct {
	Driver  string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return apperrors.ErrMissingStoreConfig
}

// DisplayName returns the label used for a driver in operator messages.
func DisplayName(driver string) string {
	switch driver {
	case config.DriverSupabase:
		return "Supabase"
	case config.DriverPostgres:
		return "Postgres"
	case config.DriverSQLite:
		return "SQLite"
	}
	return driver
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (MenuStore, error) {
	if !cfg.IsConfigured() {
		return nil, missingConfig(cfg.Driver)
	}

	switch cfg.Driver {
	case config.DriverSupabase:
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, logger), nil
	case config.DriverPostgres:
		return OpenPostgresStore(ctx, cfg.Database.ConnectionString(), logger)
	case config.DriverSQLite:
		return OpenSQLiteStore(ctx, cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func missingConfig(driver string) *ConfigError {
	var msg string
	switch driver {
	case config.DriverSupabase:
		msg = "Missing SUPABASE_URL or SUPABASE_KEY in environment."
	case config.DriverPostgres:
		msg = "Missing PGHOST in environment."
	case config.DriverSQLite:
		msg = "Missing SQLITE_PATH in environment."
	default:
		msg = fmt.Sprintf("Missing connection settings for store driver %q.", driver)
	}
	return &ConfigError{Driver: driver, Message: msg}
}

// upsertSQL builds the insert-or-overwrite statement for the menu table.
// placeholder renders the n-th (1-based) bind parameter.
func upsertSQL(placeholder func(n int) string) string {
	params := make([]string, len(menuColumns))
	var updates []string
	for i, col := range menuColumns {
		params[i] = placeholder(i + 1)
		if col != "id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		models.MenuTable,
		strings.Join(menuColumns, ", "),
		strings.Join(params, ", "),
		strings.Join(updates, ", "))
}
