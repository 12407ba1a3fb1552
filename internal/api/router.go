package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router with all routes and
// middleware.
func NewRouter(h *Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5))

	// The original service ran with wildcard CORS so browser map clients
	// can pull tiles from anywhere. Authorization is allowed through for
	// search-endpoint pass-through.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/", h.Landing)

	// Direct-source routes.
	r.Get("/tiles", h.TileJSON)
	r.Get("/tiles/", h.TileJSON)
	r.Get("/bounds", h.Bounds)
	r.Get("/bounds/", h.Bounds)
	r.Get("/preview", h.Preview)
	r.Get(`/tiles/{z:\d+}/{x:\d+}/{y:\d+}`, h.TileDirect)
	r.Get(`/tiles/{z:\d+}/{x:\d+}/{y:\d+}@{scale:\d+}x`, h.TileDirect)

	// Search-resolution routes.
	r.Get(`/stac/{z:\d+}/{x:\d+}/{y:\d+}`, h.TileSearch)
	r.Get(`/stac/{z:\d+}/{x:\d+}/{y:\d+}@{scale:\d+}x`, h.TileSearch)

	if h.metrics != nil {
		r.Get("/metrics", h.metrics.Handler().ServeHTTP)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}
