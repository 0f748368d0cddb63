package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/datasource"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/session"
)

func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (datasource.Source, error) {
	if cfg.Data.Source == "postgres" {
		src, err := datasource.NewPostgresSource(ctx, cfg.Data.PostgresDSN, datasource.Tables{
			Products:    cfg.Data.ProductsTable,
			Predictions: cfg.Data.PredictionsTable,
			Trend:       cfg.Data.TrendTable,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return datasource.NewCSVSource(cfg.Data.ProductsCSV, cfg.Data.PredictionsCSV, cfg.Data.TrendCSV, logger), nil
}

func openSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, error) {
	if cfg.Session.RedisURL == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(cfg.Session.TTL), nil
	}
	store, err := session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}
	logger.Info("using redis session store")
	return store, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"data_source", cfg.Data.Source,
		"metrics", cfg.Dashboard.Metrics,
	)

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Error("invalid metric catalog", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	defer cancel()

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open data source", "error", err)
		os.Exit(1)
	}

	dashboard := services.NewDashboard(src, cfg.Data.CacheDir, cfg.Dashboard.MaxPredictions, logger)
	if err := dashboard.Load(ctx); err != nil {
		logger.Error("failed to load dashboard data", "error", err)
		src.Close()
		os.Exit(1)
	}

	store, err := openSessions(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		src.Close()
		os.Exit(1)
	}

	defaults := func() pipeline.ViewState {
		return pipeline.DefaultViewState(catalog, cfg.Dashboard.DefaultDensity)
	}
	latency := observability.NewLatencyRecorder()

	opts := handlers.Options{
		Catalog:        catalog,
		Sessions:       session.NewManager(store, cfg.Session.CookieName, cfg.Session.TTL, defaults, logger),
		Latency:        latency,
		Dims:           cfg.Dimensions(),
		DefaultDensity: cfg.Dashboard.DefaultDensity,
		MaxDensity:     cfg.Dashboard.MaxDensity,
	}

	srv := server.NewServer(dashboard, opts, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	// Metrics runs innermost so the mux has set the matched pattern.
	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(latency),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("data source", func(ctx context.Context) error {
		src.Close()
		return nil
	})
	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		return store.Close()
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
