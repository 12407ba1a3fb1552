package render

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robert-malhotra/virtual-tiler/internal/source"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRender_SubmitsTileAndSources(t *testing.T) {
	var gotPath string
	var gotBody renderRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Raster-Source", "s3")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	sources := []source.Source{
		{URL: "https://example.com/a.tif", Name: "a", Resolution: [2]float64{0.6, 0.6}},
		{URL: "https://example.com/b.tif", Name: "b", Resolution: [2]float64{0.6, 0.6}},
	}

	headers, data, err := e.Render(context.Background(), tile.New(16, 16476, 24074), sources, "optimal", "image")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if gotPath != "/render" {
		t.Errorf("path = %q, want /render", gotPath)
	}
	if gotBody.Tile.Z != 16 || gotBody.Tile.X != 16476 || gotBody.Tile.Y != 24074 {
		t.Errorf("tile = %+v, want 16/16476/24074", gotBody.Tile)
	}
	if len(gotBody.Sources) != 2 || gotBody.Sources[0].URL != "https://example.com/a.tif" {
		t.Errorf("sources not forwarded in order: %+v", gotBody.Sources)
	}
	if gotBody.Format != "optimal" || gotBody.Transformation != "image" {
		t.Errorf("format/transformation = %q/%q", gotBody.Format, gotBody.Transformation)
	}
	if gotBody.Scale != 1 {
		t.Errorf("scale = %d, want 1", gotBody.Scale)
	}

	if string(data) != "png-bytes" {
		t.Errorf("body = %q, want png-bytes", data)
	}
	if headers.Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type not passed through: %v", headers)
	}
	if headers.Get("X-Raster-Source") != "s3" {
		t.Errorf("custom header not passed through: %v", headers)
	}
}

func TestRender_RetinaScale(t *testing.T) {
	var gotBody renderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	tl := tile.New(10, 5, 5)
	tl.Scale = 2

	if _, _, err := e.Render(context.Background(), tl, nil, "png", "image"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if gotBody.Scale != 2 {
		t.Errorf("scale = %d, want 2", gotBody.Scale)
	}
}

func TestRender_StripsTransportHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	headers, _, err := e.Render(context.Background(), tile.New(0, 0, 0), nil, "png", "image")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, name := range []string{"Content-Length", "Date"} {
		if headers.Get(name) != "" {
			t.Errorf("transport header %s must be stripped", name)
		}
	}
}

func TestRender_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	_, _, err := e.Render(context.Background(), tile.New(0, 0, 0), nil, "png", "image")
	if err == nil {
		t.Fatal("expected error for 500 status")
	}
	if !strings.Contains(err.Error(), "render blew up") {
		t.Errorf("error should carry the body snippet, got %v", err)
	}
}

func TestInspect_DecodesMetadata(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meta" {
			t.Errorf("path = %q, want /meta", r.URL.Path)
		}
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"bounds": {"west": -122, "south": 37, "east": -121, "north": 38},
			"resolution": [0.6, 0.6],
			"bandCount": 3,
			"headers": {"X-Raster-Source": "s3"}
		}`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	meta, err := e.Inspect(context.Background(), "https://example.com/scene.tif")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if gotURL != "https://example.com/scene.tif" {
		t.Errorf("url param = %q", gotURL)
	}
	if meta.Bounds.West != -122 || meta.Bounds.North != 38 {
		t.Errorf("bounds = %+v", meta.Bounds)
	}
	if meta.Resolution != [2]float64{0.6, 0.6} {
		t.Errorf("resolution = %v", meta.Resolution)
	}
	if meta.BandCount != 3 {
		t.Errorf("bandCount = %d", meta.BandCount)
	}
	if meta.Headers["X-Raster-Source"] != "s3" {
		t.Errorf("headers = %v", meta.Headers)
	}
}

func TestInspect_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second).WithLogger(testLogger())
	if _, err := e.Inspect(context.Background(), "https://example.com/missing.tif"); err == nil {
		t.Fatal("expected error for 404 meta response")
	}
}
