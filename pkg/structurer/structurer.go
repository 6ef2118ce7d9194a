// Package structurer turns collected page text into menu records with a
// single language-model completion.
package structurer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/llm"
	"github.com/ekaya-inc/menu-etl/pkg/models"
	"github.com/ekaya-inc/menu-etl/pkg/prompts"
)

var tracer = otel.Tracer("menu-etl/structurer")

// Options locate the structurer's input and output and describe the source page.
type Options struct {
	InputPath     string // Collected page text
	OutputPath    string // Structured JSON array
	SourceURL     string // Stamped on every record
	MaxInputChars int    // Prefix of the text sent to the model
}

// Structurer converts collected text into menu items.
type Structurer struct {
	llm    llm.Completer
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Structurer backed by completer.
func New(completer llm.Completer, opts Options, logger *zap.Logger) *Structurer {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = prompts.DefaultMaxInputChars
	}
	return &Structurer{
		llm:    completer,
		opts:   opts,
		now:    time.Now,
		logger: logger.Named("structurer"),
	}
}

// Run reads the collected text, structures it and writes the JSON array.
// Returns the number of items written. ErrNotCollected means the input file is
// missing; ErrNoItems means the model produced nothing usable and no file was
// written.
func (s *Structurer) Run(ctx context.Context) (int, error) {
	data, err := os.ReadFile(s.opts.InputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, apperrors.ErrNotCollected
		}
		return 0, fmt.Errorf("read %s: %w", s.opts.InputPath, err)
	}

	items := s.Structure(ctx, string(data))
	if len(items) == 0 {
		return 0, apperrors.ErrNoItems
	}

	if err := writeJSON(s.opts.OutputPath, items); err != nil {
		return 0, err
	}

	s.logger.Info("Saved structured menu",
		zap.Int("items", len(items)),
		zap.String("path", s.opts.OutputPath))
	return len(items), nil
}

// Structure asks the model for menu items found in text. Any failure (request,
// invalid JSON, wrong shape) is logged and yields an empty slice.
func (s *Structurer) Structure(ctx context.Context, text string) []models.MenuItem {
	requestID := uuid.New()
	ctx = llm.WithRequestID(ctx, requestID)

	ctx, span := tracer.Start(ctx, "Structure")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", requestID.String()),
		attribute.String("model", s.llm.GetModel()))

	items, err := s.structure(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("Failed to structure menu text",
			zap.String("request_id", requestID.String()),
			zap.Error(err))
		return []models.MenuItem{}
	}

	span.SetAttributes(attribute.Int("items", len(items)))
	return items
}

func (s *Structurer) structure(ctx context.Context, text string) ([]models.MenuItem, error) {
	prompt := prompts.BuildMenuExtractionPrompt(text, s.opts.MaxInputChars)

	result, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	raw, err := llm.ParseJSONResponse[[]map[string]json.RawMessage](llm.StripCodeFences(result.Content))
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	extractedAt := models.NewTimestamp(s.now())
	items := make([]models.MenuItem, 0, len(raw))
	for _, fields := range raw {
		item := models.ItemFromFields(fields)
		item.SourceURL = s.opts.SourceURL
		item.ExtractedAt = extractedAt
		items = append(items, item)
	}
	return items, nil
}

func writeJSON(path string, items []models.MenuItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode menu items: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
