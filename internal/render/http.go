package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robert-malhotra/virtual-tiler/internal/catalog"
	"github.com/robert-malhotra/virtual-tiler/internal/source"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// HTTPEngine talks to a remote rendering engine over HTTP:
// POST {base}/render for tiles, GET {base}/meta for raster metadata.
type HTTPEngine struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPEngine creates an engine client for the given base URL.
func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the engine client.
func (e *HTTPEngine) WithLogger(logger *slog.Logger) *HTTPEngine {
	e.logger = logger
	return e
}

// renderRequest is the engine's render call payload.
type renderRequest struct {
	Tile           renderTile      `json:"tile"`
	Sources        []source.Source `json:"sources"`
	Format         string          `json:"format"`
	Transformation string          `json:"transformation"`
	Scale          int             `json:"scale"`
}

type renderTile struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

// Render submits one render call and returns the engine's headers and image
// bytes unchanged.
func (e *HTTPEngine) Render(ctx context.Context, t tile.Tile, sources []source.Source, format, transformation string) (http.Header, []byte, error) {
	scale := t.Scale
	if scale < 1 {
		scale = 1
	}

	body, err := json.Marshal(renderRequest{
		Tile:           renderTile{Z: t.Z, X: t.X, Y: t.Y},
		Sources:        sources,
		Format:         format,
		Transformation: transformation,
		Scale:          scale,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	e.logger.DebugContext(ctx, "submitting render",
		slog.String("tile", t.String()),
		slog.Int("scale", scale),
		slog.Int("source_count", len(sources)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.ErrorContext(ctx, "render request failed",
			slog.String("tile", t.String()),
			slog.String("error", err.Error()),
		)
		return nil, nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.ErrorContext(ctx, "render engine returned non-success status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(snippet)),
		)
		return nil, nil, fmt.Errorf("render engine returned status %d: %s", resp.StatusCode, string(snippet))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read render response: %w", err)
	}

	return passthroughHeaders(resp.Header), data, nil
}

// Inspect reads raster metadata through the engine's meta endpoint.
func (e *HTTPEngine) Inspect(ctx context.Context, rasterURL string) (*catalog.RasterMeta, error) {
	q := url.Values{}
	q.Set("url", rasterURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/meta?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create meta request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("meta endpoint returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var meta catalog.RasterMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode raster metadata: %w", err)
	}

	return &meta, nil
}

// passthroughHeaders copies the engine response headers the tile response
// should carry, dropping transport-level ones the server sets itself.
func passthroughHeaders(h http.Header) http.Header {
	out := http.Header{}
	for name, values := range h {
		switch name {
		case "Content-Length", "Connection", "Date", "Server", "Transfer-Encoding":
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}
