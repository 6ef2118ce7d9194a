// Package collector fetches the menu page and reduces it to visible text.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
)

var tracer = otel.Tracer("menu-etl/collector")

// Collector fetches a single page and writes its visible text to disk.
type Collector struct {
	client  *resty.Client
	url     string
	outPath string
	logger  *zap.Logger
}

// New creates a collector for cfg.URL writing to outPath.
func New(cfg config.CollectorConfig, outPath string, logger *zap.Logger) *Collector {
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout)

	return &Collector{
		client:  client,
		url:     cfg.URL,
		outPath: outPath,
		logger:  logger.Named("collector"),
	}
}

// URL returns the page this collector fetches.
func (c *Collector) URL() string {
	return c.url
}

// OutputPath returns the file the extracted text is written to.
func (c *Collector) OutputPath() string {
	return c.outPath
}

// Collect fetches the page, extracts its text and overwrites the output file.
// Network failures and non-2xx responses are returned as errors; nothing is
// written in that case.
func (c *Collector) Collect(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()
	span.SetAttributes(attribute.String("url", c.url))

	text, err := c.collect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("Failed to scrape menu page",
			zap.String("url", c.url),
			zap.Error(err))
		return "", err
	}

	span.SetAttributes(attribute.Int("chars", len(text)))
	c.logger.Info("Scraped menu page",
		zap.String("url", c.url),
		zap.Int("chars", len(text)),
		zap.String("path", c.outPath))
	return text, nil
}

func (c *Collector) collect(ctx context.Context) (string, error) {
	res, err := c.client.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", c.url, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch %s: unexpected status %s", c.url, res.Status())
	}

	text, err := ExtractText(bytes.NewReader(res.Body()))
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	if err := writeFile(c.outPath, text); err != nil {
		return "", err
	}
	return text, nil
}

func writeFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
