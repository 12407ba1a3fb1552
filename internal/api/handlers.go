package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robert-malhotra/virtual-tiler/internal/catalog"
	"github.com/robert-malhotra/virtual-tiler/internal/config"
	"github.com/robert-malhotra/virtual-tiler/internal/metrics"
	"github.com/robert-malhotra/virtual-tiler/internal/render"
	"github.com/robert-malhotra/virtual-tiler/internal/search"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// Searcher executes catalog searches. Implemented by search.Client.
type Searcher interface {
	Search(ctx context.Context, endpoint string, q search.Query) (*search.Response, error)
}

// Handlers contains all HTTP handlers for the tile API.
type Handlers struct {
	cfg          *config.Config
	factory      *catalog.Factory
	materializer *catalog.Materializer
	resolver     *search.Resolver
	searcher     Searcher
	engine       render.Engine
	metrics      *metrics.Provider
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	factory *catalog.Factory,
	materializer *catalog.Materializer,
	resolver *search.Resolver,
	searcher Searcher,
	engine render.Engine,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:          cfg,
		factory:      factory,
		materializer: materializer,
		resolver:     resolver,
		searcher:     searcher,
		engine:       engine,
		logger:       logger,
	}
}

// WithMetrics sets the metrics provider for request instrumentation.
func (h *Handlers) WithMetrics(p *metrics.Provider) *Handlers {
	h.metrics = p
	return h
}

// Landing returns a small JSON service descriptor.
// GET /
func (h *Handlers) Landing(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"name":        "virtual-tiler",
		"description": "on-demand tile compositing from dynamically resolved raster sources",
		"links": []map[string]string{
			{"rel": "tilejson", "href": "/tiles/?url={rasterUrl}"},
			{"rel": "bounds", "href": "/bounds/?url={rasterUrl}"},
			{"rel": "tiles", "href": "/tiles/{z}/{x}/{y}?url={rasterUrl}"},
			{"rel": "search-tiles", "href": "/stac/{z}/{x}/{y}?url={searchUrl}"},
		},
	})
}

// Health returns service liveness.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TileJSON returns TileJSON metadata for a direct raster source.
// GET /tiles/?url=...
func (h *Handlers) TileJSON(w http.ResponseWriter, r *http.Request) {
	cat, err := h.factory.Get(r.Context(), catalogParams(r.URL.Query()))
	if err != nil {
		WriteNotFound(w, "no catalog available for the requested source")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"tilejson": "2.1.0",
		"name":     cat.Name,
		"bounds":   cat.Bounds.Slice(),
		"center":   cat.Center,
		"minzoom":  cat.MinZoom,
		"maxzoom":  cat.MaxZoom,
		"tiles": []string{
			fmt.Sprintf("//%s/tiles/{z}/{x}/{y}?%s", r.Host, r.URL.RawQuery),
		},
	})
}

// Bounds returns the geographic extent of a direct raster source.
// GET /bounds/?url=...
func (h *Handlers) Bounds(w http.ResponseWriter, r *http.Request) {
	cat, err := h.factory.Get(r.Context(), catalogParams(r.URL.Query()))
	if err != nil {
		WriteNotFound(w, "no catalog available for the requested source")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"url":    cat.URI,
		"bounds": cat.Bounds.Slice(),
	})
}

// Preview validates a source and returns a preview descriptor, redirecting
// to the landing page when the source does not resolve.
// GET /preview?url=...
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	if _, err := h.factory.Get(r.Context(), catalogParams(r.URL.Query())); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"tilejson": fmt.Sprintf("//%s/tiles/?%s", r.Host, r.URL.RawQuery),
		"source":   r.URL.Query().Get("url"),
	})
}

// TileDirect renders one tile from a single raster source.
// GET /tiles/{z}/{x}/{y} and /tiles/{z}/{x}/{y}@{scale}x
func (h *Handlers) TileDirect(w http.ResponseWriter, r *http.Request) {
	t, err := parseTile(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	cat, err := h.factory.Get(r.Context(), catalogParams(r.URL.Query()))
	if err != nil {
		h.countTile("direct", "no_catalog")
		WriteNotFound(w, "no catalog available for the requested source")
		return
	}

	start := time.Now()
	headers, data, err := h.engine.Render(r.Context(), t, cat.Sources(), h.cfg.Render.Format, h.cfg.Render.Transformation)
	h.observeRender("direct", start)
	if err != nil {
		h.countTile("direct", "render_error")
		h.logger.ErrorContext(r.Context(), "direct render failed",
			slog.String("tile", t.String()),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "tile render failed")
		return
	}

	// Direct mode also carries the catalog's own headers.
	for name, value := range cat.Headers {
		headers.Set(name, value)
	}

	h.countTile("direct", "ok")
	writeImage(w, headers, data)
}

// TileSearch renders one tile composited from sources resolved through a
// catalog search endpoint.
// GET /stac/{z}/{x}/{y} and /stac/{z}/{x}/{y}@{scale}x
func (h *Handlers) TileSearch(w http.ResponseWriter, r *http.Request) {
	t, err := parseTile(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	endpoint := r.URL.Query().Get("url")
	if endpoint == "" {
		WriteBadRequest(w, "missing search endpoint url parameter")
		return
	}

	q := search.FromRequest(r.URL.Query(), t, h.cfg.Search.Limit, r.Header.Get("Authorization"))

	resp, err := h.searcher.Search(r.Context(), endpoint, q)
	if err != nil {
		h.countTile("search", "upstream_error")
		h.logger.ErrorContext(r.Context(), "catalog search failed",
			slog.String("tile", t.String()),
			slog.String("error", err.Error()),
		)
		WriteUpstreamError(w, "catalog search failed")
		return
	}

	urls := h.resolver.Resolve(resp.Features, t.Bounds())
	if h.metrics != nil {
		h.metrics.SearchFeatures.Observe(float64(len(resp.Features)))
		h.metrics.SearchFeaturesDropped.Add(float64(len(resp.Features) - len(urls)))
	}
	h.logger.InfoContext(r.Context(), "resolved tile sources",
		slog.String("tile", t.String()),
		slog.Int("feature_count", len(resp.Features)),
		slog.Int("source_count", len(urls)),
	)

	sources, err := h.materializer.Materialize(r.Context(), urls)
	if err != nil {
		h.countTile("search", "no_catalog")
		WriteInternalError(w, "failed to materialize tile sources")
		return
	}

	start := time.Now()
	headers, data, err := h.engine.Render(r.Context(), t, sources, h.cfg.Render.Format, h.cfg.Render.Transformation)
	h.observeRender("search", start)
	if err != nil {
		h.countTile("search", "render_error")
		h.logger.ErrorContext(r.Context(), "search render failed",
			slog.String("tile", t.String()),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "tile render failed")
		return
	}

	h.countTile("search", "ok")
	writeImage(w, headers, data)
}

func (h *Handlers) countTile(mode, outcome string) {
	if h.metrics != nil {
		h.metrics.TilesServed.WithLabelValues(mode, outcome).Inc()
	}
}

func (h *Handlers) observeRender(mode string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RenderDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}
}

// writeImage writes the rendering engine's headers and bytes unchanged.
func writeImage(w http.ResponseWriter, headers http.Header, data []byte) {
	for name, values := range headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// catalogParams maps the request's query parameters onto catalog params.
func catalogParams(q url.Values) catalog.Params {
	return catalog.Params{
		URL:           q.Get("url"),
		RGB:           q.Get("rgb"),
		Nodata:        q.Get("nodata"),
		LinearStretch: q.Get("linearStretch") != "",
		Resample:      q.Get("resample"),
		Expr:          q.Get("expr"),
	}
}

// parseTile extracts and validates the tile coordinate from the route.
func parseTile(r *http.Request) (tile.Tile, error) {
	z, err := strconv.Atoi(chi.URLParam(r, "z"))
	if err != nil || z < 0 || z > 30 {
		return tile.Tile{}, fmt.Errorf("invalid zoom %q", chi.URLParam(r, "z"))
	}
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		return tile.Tile{}, fmt.Errorf("invalid tile column %q", chi.URLParam(r, "x"))
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		return tile.Tile{}, fmt.Errorf("invalid tile row %q", chi.URLParam(r, "y"))
	}

	max := int(math.Exp2(float64(z)))
	if x < 0 || x >= max || y < 0 || y >= max {
		return tile.Tile{}, errors.New("tile coordinate out of range for zoom level")
	}

	scale := 1
	if s := chi.URLParam(r, "scale"); s != "" {
		scale, err = strconv.Atoi(s)
		if err != nil || scale < 1 || scale > 4 {
			return tile.Tile{}, fmt.Errorf("invalid scale %q", s)
		}
	}

	return tile.Tile{Z: z, X: x, Y: y, Scale: scale}, nil
}
