package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
	"github.com/ekaya-inc/menu-etl/pkg/dashboard"
	"github.com/ekaya-inc/menu-etl/pkg/database"
	"github.com/ekaya-inc/menu-etl/pkg/handlers"
	"github.com/ekaya-inc/menu-etl/pkg/middleware"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

const shutdownTimeout = 10 * time.Second

type dashboardFlags struct {
	print      bool
	category   string
	vegetarian bool
	glutenFree bool
	item       string
}

func newDashboardCommand(a *app) *cobra.Command {
	var flags dashboardFlags

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the menu dashboard, or print it once with --print.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shared, closeShared := openSharedCache(cmd.Context(), a.cfg, a.logger)
			defer closeShared()

			svc := newDashboardService(a.cfg, shared, a.logger)
			defer svc.Close()

			if flags.print {
				filters := dashboard.Filters{
					Category:       flags.category,
					VegetarianOnly: flags.vegetarian,
					GlutenFreeOnly: flags.glutenFree,
				}
				view := svc.Render(cmd.Context(), filters, flags.item)
				return dashboard.RenderText(cmd.OutOrStdout(), view)
			}
			return serveDashboard(cmd.Context(), a.cfg, svc, a.logger)
		},
	}

	cmd.Flags().BoolVar(&flags.print, "print", false, "Render the dashboard to the terminal and exit.")
	cmd.Flags().StringVar(&flags.category, "category", dashboard.AllCategories, "Category filter for --print.")
	cmd.Flags().BoolVar(&flags.vegetarian, "vegetarian", false, "Only vegetarian items for --print.")
	cmd.Flags().BoolVar(&flags.glutenFree, "gluten-free", false, "Only gluten-free items for --print.")
	cmd.Flags().StringVar(&flags.item, "item", "", "Item shown in the detail panel for --print.")
	return cmd
}

func newDashboardService(cfg *config.Config, shared dashboard.SharedCache, logger *zap.Logger) *dashboard.Service {
	open := func(ctx context.Context) (store.MenuStore, error) {
		return store.New(ctx, cfg.Store, logger)
	}
	return dashboard.NewService(open, dashboard.Options{
		Driver:            cfg.Store.Driver,
		CachePolicy:       dashboard.FetchCachePolicy{TTL: cfg.Dashboard.CacheTTL},
		HistogramBinWidth: cfg.Dashboard.HistogramBinWidth,
		Shared:            shared,
	}, logger)
}

// openSharedCache connects to Redis when REDIS_HOST is set. An unreachable
// Redis is logged and the dashboard runs with its local cache only.
func openSharedCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dashboard.SharedCache, func()) {
	client, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("Shared cache disabled", zap.Error(err))
		return nil, func() {}
	}
	if client == nil {
		return nil, func() {}
	}
	logger.Info("Using shared cache", zap.String("redis", cfg.Redis.Addr()))
	return dashboard.NewRedisCache(client), func() { _ = client.Close() }
}

// newDashboardMux registers every dashboard route behind the request logger.
func newDashboardMux(cfg *config.Config, svc handlers.DashboardRenderer, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDashboardHandler(svc, cfg.Dashboard.SessionKey, logger).RegisterRoutes(mux)
	return middleware.RequestLogger(logger)(mux)
}

func serveDashboard(ctx context.Context, cfg *config.Config, svc *dashboard.Service, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              cfg.Dashboard.ListenAddr(),
		Handler:           newDashboardMux(cfg, svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting dashboard",
			zap.String("addr", "http://"+server.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("version", cfg.Version))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
