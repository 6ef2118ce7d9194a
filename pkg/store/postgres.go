package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/database"
	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/logging"
	"github.com/ekaya-inc/menu-etl/pkg/models"
)

// PostgresStore writes the menu table directly over the PostgreSQL protocol.
// The table must exist; `menu-etl migrate` creates it.
type PostgresStore struct {
	db     *database.DB
	logger *zap.Logger
}

var postgresUpsert = upsertSQL(func(n int) string { return fmt.Sprintf("$%d", n) })

// OpenPostgresStore connects to connStr.
func OpenPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := database.NewConnection(ctx, &database.Config{URL: connStr})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", logging.SanitizeConnectionString(connStr), err)
	}
	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db *database.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.Named("postgres"),
	}
}

// Upsert inserts item or overwrites the row with the same id.
func (s *PostgresStore) Upsert(ctx context.Context, item models.MenuItem) error {
	var allergens any
	if raw := item.AllergensValue(); raw != nil {
		allergens = raw
	}

	_, err := s.db.Exec(ctx, postgresUpsert,
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
		timeArg(item.ExtractedAt),
		timeArg(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", item.ID, err)
	}
	return nil
}

// SelectAll reads every row, taking column names from the result description.
func (s *PostgresStore) SelectAll(ctx context.Context) (*frame.Frame, error) {
	rows, err := s.db.Query(ctx, "SELECT * FROM "+models.MenuTable)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	f := frame.New(columns, nil)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", models.MenuTable, err)
		}
		row := make(frame.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		f.Rows = append(f.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", models.MenuTable, err)
	}

	s.logger.Debug("Fetched menu rows", zap.Int("rows", f.Len()))
	return f, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func timeArg(ts *models.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.Time
}

// normalizeValue converts driver types to the JSON-shaped values frames hold.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return models.NewTimestamp(val).String()
	case []byte:
		return string(val)
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	case float32:
		return float64(val)
	}
	return v
}
