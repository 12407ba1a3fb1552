package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

const featureCollectionJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"stac_version": "1.0.0",
			"id": "scene-1",
			"bbox": [-122.5, 37.5, -122.0, 38.0],
			"geometry": null,
			"properties": {"datetime": "2023-06-15T18:00:00Z"},
			"assets": {
				"visual": {"href": "https://example.com/scene-1.tif"}
			},
			"links": []
		},
		{
			"type": "Feature",
			"stac_version": "1.0.0",
			"id": "scene-2",
			"bbox": [-122.6, 37.4, -122.1, 37.9],
			"geometry": null,
			"properties": {"datetime": "2023-06-16T18:00:00Z"},
			"assets": {
				"B2": {"href": "https://example.com/scene-2-b2.tif"}
			},
			"links": []
		}
	]
}`

func TestSearch_SendsQueryAndDecodesFeatures(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(featureCollectionJSON))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second).WithLogger(testLogger())
	q := Query{
		BBox:          tile.BoundingBox{West: -122.5, South: 37.5, East: -122, North: 38},
		Limit:         500,
		Constellation: "NAIP",
		Authorization: "Bearer test-token",
	}

	resp, err := c.Search(context.Background(), srv.URL, q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if got := gotQuery["bbox"]; len(got) != 1 || got[0] != "-122.5,37.5,-122,38" {
		t.Errorf("bbox param = %v, want [-122.5,37.5,-122,38]", got)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "500" {
		t.Errorf("limit param = %v, want [500]", got)
	}
	if got := gotQuery["query"]; len(got) != 1 {
		t.Errorf("expected one query param, got %v", got)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want forwarded bearer token", gotAuth)
	}

	if len(resp.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(resp.Features))
	}
	if resp.Features[0].Id != "scene-1" {
		t.Errorf("first feature id = %q, want scene-1", resp.Features[0].Id)
	}
	if asset := resp.Features[0].Assets["visual"]; asset == nil || asset.Href != "https://example.com/scene-1.tif" {
		t.Errorf("visual asset not decoded: %+v", asset)
	}
}

func TestSearch_NoAuthorizationHeaderWhenEmpty(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second).WithLogger(testLogger())
	if _, err := c.Search(context.Background(), srv.URL, Query{Limit: 10}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hadAuth {
		t.Error("Authorization header must be absent when the caller sent none")
	}
}

func TestSearch_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second).WithLogger(testLogger())
	_, err := c.Search(context.Background(), srv.URL, Query{Limit: 10})
	if !errors.Is(err, ErrUpstreamSearch) {
		t.Errorf("expected ErrUpstreamSearch for 500 status, got %v", err)
	}
}

func TestSearch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "FeatureCollection", "features": [`))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second).WithLogger(testLogger())
	_, err := c.Search(context.Background(), srv.URL, Query{Limit: 10})
	if !errors.Is(err, ErrUpstreamSearch) {
		t.Errorf("expected ErrUpstreamSearch for malformed body, got %v", err)
	}
}

func TestSearch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(time.Second).WithLogger(testLogger())
	_, err := c.Search(context.Background(), srv.URL, Query{Limit: 10})
	if !errors.Is(err, ErrUpstreamSearch) {
		t.Errorf("expected ErrUpstreamSearch for connection failure, got %v", err)
	}
}
