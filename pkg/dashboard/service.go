package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/logging"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

// StoreOpener connects to the menu table. It is called lazily and again after
// a failure, so a store that becomes reachable is picked up without restart.
type StoreOpener func(ctx context.Context) (store.MenuStore, error)

// Options configure a Service.
type Options struct {
	Driver            string // Store driver, used in error messages
	CachePolicy       FetchCachePolicy
	HistogramBinWidth int
	Shared            SharedCache // Optional second cache level
}

// Service renders dashboard views from a cached full-table fetch.
type Service struct {
	open     StoreOpener
	driver   string
	binWidth int
	cache    *Cache
	logger   *zap.Logger

	mu    sync.Mutex
	store store.MenuStore
}

// NewService creates a dashboard service reading through open.
func NewService(open StoreOpener, opts Options, logger *zap.Logger) *Service {
	s := &Service{
		open:     open,
		driver:   opts.Driver,
		binWidth: opts.HistogramBinWidth,
		logger:   logger.Named("dashboard"),
	}
	s.cache = NewCache(opts.CachePolicy, s.fetch, s.logger)
	if opts.Shared != nil {
		s.cache.WithShared(opts.Shared)
	}
	return s
}

// Render fetches (or reuses) the menu rows and builds the view. A fetch
// failure is reported in View.Error and rendered as an empty data set.
func (s *Service) Render(ctx context.Context, filters Filters, selectedItem string) View {
	f, hit, err := s.cache.Get(ctx)
	var errMsg string
	if err != nil {
		errMsg = s.errorMessage(err)
		s.logger.Error("Failed to fetch menu rows", zap.String("error", logging.SanitizeError(err)))
		f = frame.Empty()
	} else {
		s.logger.Debug("Menu rows ready", zap.Int("rows", f.Len()), zap.Bool("cache_hit", hit))
	}

	v := BuildView(f, filters, selectedItem, s.binWidth)
	v.Error = errMsg
	return v
}

// Invalidate forces the next render to fetch.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}

// Close releases the store, if one was opened.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

func (s *Service) fetch(ctx context.Context) (*frame.Frame, error) {
	st, err := s.getStore(ctx)
	if err != nil {
		return nil, err
	}
	return st.SelectAll(ctx)
}

func (s *Service) getStore(ctx context.Context) (store.MenuStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store, nil
	}
	st, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.store = st
	return st, nil
}

func (s *Service) errorMessage(err error) string {
	var cfgErr *store.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Message
	}
	return fmt.Sprintf("Error fetching data from %s: %s", store.DisplayName(s.driver), logging.SanitizeError(err))
}
