// Virtual tiler server entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robert-malhotra/virtual-tiler/internal/api"
	"github.com/robert-malhotra/virtual-tiler/internal/catalog"
	"github.com/robert-malhotra/virtual-tiler/internal/config"
	"github.com/robert-malhotra/virtual-tiler/internal/metrics"
	"github.com/robert-malhotra/virtual-tiler/internal/render"
	"github.com/robert-malhotra/virtual-tiler/internal/search"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting virtual tiler",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"render_engine", cfg.Render.BaseURL,
	)

	var provider *metrics.Provider
	if cfg.Metrics.Enabled {
		provider = metrics.Init()
	}

	engine := render.NewHTTPEngine(cfg.Render.BaseURL, cfg.Render.Timeout).WithLogger(logger)

	factory := catalog.NewFactory(engine, cfg.Catalog.CacheSize, logger)
	if provider != nil {
		factory.WithCacheObserver(provider.CatalogCacheHits.Inc, provider.CatalogCacheMisses.Inc)
	}
	materializer := catalog.NewMaterializer(factory)

	searcher := search.NewClient(cfg.Search.Timeout).WithLogger(logger)
	resolver := search.NewResolver(cfg.Search.AssetKeys, logger)
	logger.Info("configured search resolution",
		"limit", cfg.Search.Limit,
		"asset_keys", cfg.Search.AssetKeys,
	)

	handlers := api.NewHandlers(cfg, factory, materializer, resolver, searcher, engine, logger)
	if provider != nil {
		handlers = handlers.WithMetrics(provider)
	}

	router := api.NewRouter(handlers, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
