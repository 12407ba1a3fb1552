// Package server provides a public API for embedding the virtual tiler.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robert-malhotra/virtual-tiler/internal/api"
	"github.com/robert-malhotra/virtual-tiler/internal/catalog"
	"github.com/robert-malhotra/virtual-tiler/internal/config"
	"github.com/robert-malhotra/virtual-tiler/internal/metrics"
	"github.com/robert-malhotra/virtual-tiler/internal/render"
	"github.com/robert-malhotra/virtual-tiler/internal/search"
)

// Options configures an embedded virtual tiler.
type Options struct {
	// RenderBaseURL is the rendering engine's base URL (required).
	RenderBaseURL string

	// RenderTimeout is the render call timeout.
	// Default: 60s
	RenderTimeout time.Duration

	// Format is the output format descriptor passed to the engine.
	// Default: "optimal"
	Format string

	// Transformation is the pixel transformation descriptor.
	// Default: "image"
	Transformation string

	// SearchLimit caps the feature count requested per catalog search.
	// Default: 500
	SearchLimit int

	// SearchTimeout is the search call timeout.
	// Default: 30s
	SearchTimeout time.Duration

	// AssetKeys is the per-feature asset lookup order, highest priority
	// first.
	// Default: ["visual", "B2"]
	AssetKeys []string

	// CatalogCacheSize bounds the catalog memoization cache.
	// Default: 1024
	CatalogCacheSize int

	// EnableMetrics mounts a Prometheus /metrics endpoint.
	EnableMetrics bool

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a virtual tiler that can be embedded in another application.
type Server struct {
	router chi.Router
}

// New creates a new tiler server with the given options.
func New(opts Options) (*Server, error) {
	if opts.RenderBaseURL == "" {
		return nil, fmt.Errorf("render base URL is required")
	}
	if opts.RenderTimeout == 0 {
		opts.RenderTimeout = 60 * time.Second
	}
	if opts.Format == "" {
		opts.Format = "optimal"
	}
	if opts.Transformation == "" {
		opts.Transformation = "image"
	}
	if opts.SearchLimit == 0 {
		opts.SearchLimit = 500
	}
	if opts.SearchTimeout == 0 {
		opts.SearchTimeout = 30 * time.Second
	}
	if len(opts.AssetKeys) == 0 {
		opts.AssetKeys = search.DefaultAssetKeys
	}
	if opts.CatalogCacheSize == 0 {
		opts.CatalogCacheSize = catalog.DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := &config.Config{
		Render: config.RenderConfig{
			BaseURL:        opts.RenderBaseURL,
			Timeout:        opts.RenderTimeout,
			Format:         opts.Format,
			Transformation: opts.Transformation,
		},
		Search: config.SearchConfig{
			Limit:     opts.SearchLimit,
			Timeout:   opts.SearchTimeout,
			AssetKeys: opts.AssetKeys,
		},
		Catalog: config.CatalogConfig{
			CacheSize: opts.CatalogCacheSize,
		},
	}

	engine := render.NewHTTPEngine(cfg.Render.BaseURL, cfg.Render.Timeout).WithLogger(opts.Logger)

	factory := catalog.NewFactory(engine, cfg.Catalog.CacheSize, opts.Logger)
	materializer := catalog.NewMaterializer(factory)

	searcher := search.NewClient(cfg.Search.Timeout).WithLogger(opts.Logger)
	resolver := search.NewResolver(cfg.Search.AssetKeys, opts.Logger)

	handlers := api.NewHandlers(cfg, factory, materializer, resolver, searcher, engine, opts.Logger)
	if opts.EnableMetrics {
		provider := metrics.Init()
		factory.WithCacheObserver(provider.CatalogCacheHits.Inc, provider.CatalogCacheMisses.Inc)
		handlers = handlers.WithMetrics(provider)
	}

	return &Server{
		router: api.NewRouter(handlers, opts.Logger),
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}
