// Package loader upserts structured menu items into the menu table.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/logging"
	"github.com/ekaya-inc/menu-etl/pkg/models"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

var tracer = otel.Tracer("menu-etl/loader")

// ItemFailure records one item that could not be written.
type ItemFailure struct {
	ID   string
	Name string
	Err  error
}

// Result summarizes a load run.
type Result struct {
	Total      int
	Successful int
	Failures   []ItemFailure
}

// ItemFunc is called after each upsert attempt; err is nil on success.
type ItemFunc func(item models.MenuItem, err error)

// Loader reads the structured JSON file and writes each item to a store.
type Loader struct {
	store  store.MenuStore
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// New creates a loader reading path and writing to s.
func New(s store.MenuStore, path string, logger *zap.Logger) *Loader {
	return &Loader{
		store:  s,
		path:   path,
		now:    time.Now,
		logger: logger.Named("loader"),
	}
}

// Run upserts every item of the input file. A missing file or one that is
// not a JSON array aborts the run with an error. Records that cannot be
// decoded and individual upsert failures are recorded in the result and do
// not stop the batch. onItem may be nil.
func (l *Loader) Run(ctx context.Context, onItem ItemFunc) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Load", trace.WithAttributes(attribute.String("path", l.path)))
	defer span.End()

	records, err := ReadRecords(l.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &Result{Total: len(records)}
	for i, raw := range records {
		item, err := models.DecodeRecord(raw)
		if err != nil {
			err = fmt.Errorf("%w: record %d: %v", apperrors.ErrInvalidInput, i, err)
		} else {
			item.UpdatedAt = models.NewTimestamp(l.now())
			err = l.store.Upsert(ctx, item)
		}

		if err != nil {
			l.logger.Warn("Failed to load menu item",
				zap.Int("index", i),
				zap.String("id", item.ID),
				zap.String("name", item.DisplayName()),
				zap.String("error", logging.SanitizeError(err)))
			result.Failures = append(result.Failures, ItemFailure{
				ID:   item.ID,
				Name: item.DisplayName(),
				Err:  err,
			})
		} else {
			result.Successful++
		}

		if onItem != nil {
			onItem(item, err)
		}
	}

	span.SetAttributes(
		attribute.Int("total", result.Total),
		attribute.Int("successful", result.Successful))
	if len(result.Failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d items failed", len(result.Failures), result.Total))
	}

	l.logger.Info("Load complete",
		zap.Int("successful", result.Successful),
		zap.Int("total", result.Total))
	return result, nil
}

// ReadRecords reads the structured menu file and splits it into its array
// elements. Elements are decoded later, one at a time, by models.DecodeRecord.
func ReadRecords(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	return records, nil
}
