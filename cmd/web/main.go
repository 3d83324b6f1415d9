package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("dashboard stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting dashboard",
		"version", version,
		"addr", cfg.Address(),
		"sales_file", cfg.Data.SalesFile,
		"boundary_file", cfg.Data.BoundaryFile,
	)

	analytics, err := loadAnalytics(cfg.Data, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gs := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gs.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("final analytics stats", "stats", analytics.Stats())
		return nil
	})

	return gs.ListenAndServe()
}

func loadAnalytics(cfg config.DataConfig, logger *slog.Logger) (*services.Analytics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	analytics := services.NewAnalytics()
	start := time.Now()
	if err := analytics.LoadFromFiles(ctx, cfg.SalesFile, cfg.BoundaryFile); err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	logger.Info("dashboard data ready", "duration", time.Since(start))
	return analytics, nil
}

// newHandler wraps the routes in the middleware stack. Recovery is
// outermost; compression sits closest to the handlers.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger),
		middleware.Compression(cfg.HTTP.EnableCompression, logger),
	)
	return chain(server.NewServer(analytics, logger))
}
