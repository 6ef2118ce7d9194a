package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS chickfila_menu (
    id             TEXT PRIMARY KEY,
    name           TEXT,
    category       TEXT,
    description    TEXT,
    price          TEXT,
    calories       TEXT,
    allergens      TEXT,
    is_vegetarian  INTEGER NOT NULL DEFAULT 0,
    is_gluten_free INTEGER NOT NULL DEFAULT 0,
    source_url     TEXT,
    extracted_at   TEXT,
    updated_at     TEXT
)`

var sqliteUpsert = upsertSQL(func(int) string { return "?" })

// sqliteBoolColumns are stored as 0/1 and read back as bool.
var sqliteBoolColumns = map[string]bool{"is_vegetarian": true, "is_gluten_free": true}

// SQLiteStore keeps the menu table in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteStore opens (creating if needed) the database file at path and
// ensures the menu table exists.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", models.MenuTable, err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.Named("sqlite"),
	}, nil
}

// Upsert inserts item or overwrites the row with the same id.
func (s *SQLiteStore) Upsert(ctx context.Context, item models.MenuItem) error {
	var allergens any
	if raw := item.AllergensValue(); raw != nil {
		allergens = string(raw)
	}

	_, err := s.db.ExecContext(ctx, sqliteUpsert,
		item.ID,
		item.Name,
		item.Category,
		item.Description,
		item.Price,
		item.Calories,
		allergens,
		item.IsVegetarian,
		item.IsGlutenFree,
		item.SourceURL,
		timeText(item.ExtractedAt),
		timeText(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", item.ID, err)
	}
	return nil
}

// SelectAll reads every row. allergens is decoded from its JSON text.
func (s *SQLiteStore) SelectAll(ctx context.Context) (*frame.Frame, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+models.MenuTable)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}

	f := frame.New(columns, nil)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read %s row: %w", models.MenuTable, err)
		}

		row := make(frame.Row, len(columns))
		for i, col := range columns {
			row[col] = sqliteValue(col, normalizeValue(values[i]))
		}
		f.Rows = append(f.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}

	s.logger.Debug("Fetched menu rows", zap.Int("rows", f.Len()))
	return f, nil
}

// Close closes the database file.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func timeText(ts *models.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.String()
}

func sqliteValue(col string, v any) any {
	if v == nil {
		return nil
	}
	if sqliteBoolColumns[col] {
		if n, ok := v.(int64); ok {
			return n != 0
		}
		return v
	}
	if col == "allergens" {
		if text, ok := v.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(text), &decoded); err == nil {
				return decoded
			}
		}
	}
	return v
}
