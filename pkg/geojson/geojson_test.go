package geojson

import (
	"encoding/json"
	"testing"
)

func TestComputeBBox_Point(t *testing.T) {
	g := &Geometry{
		Type:        "Point",
		Coordinates: json.RawMessage(`[-122.5, 37.7]`),
	}

	bbox, err := ComputeBBox(g)
	if err != nil {
		t.Fatalf("ComputeBBox failed: %v", err)
	}

	want := []float64{-122.5, 37.7, -122.5, 37.7}
	for i, v := range want {
		if bbox[i] != v {
			t.Errorf("bbox[%d] = %f, want %f", i, bbox[i], v)
		}
	}
}

func TestComputeBBox_Polygon(t *testing.T) {
	g := &Geometry{
		Type:        "Polygon",
		Coordinates: json.RawMessage(`[[[-122.0, 37.0], [-121.0, 37.0], [-121.0, 38.0], [-122.0, 38.0], [-122.0, 37.0]]]`),
	}

	bbox, err := ComputeBBox(g)
	if err != nil {
		t.Fatalf("ComputeBBox failed: %v", err)
	}

	want := []float64{-122.0, 37.0, -121.0, 38.0}
	for i, v := range want {
		if bbox[i] != v {
			t.Errorf("bbox[%d] = %f, want %f", i, bbox[i], v)
		}
	}
}

func TestComputeBBox_MultiPolygon(t *testing.T) {
	g := &Geometry{
		Type:        "MultiPolygon",
		Coordinates: json.RawMessage(`[[[[-122.0, 37.0], [-121.0, 37.0], [-121.0, 38.0], [-122.0, 37.0]]], [[[-120.0, 39.0], [-119.0, 39.0], [-119.0, 40.0], [-120.0, 39.0]]]]`),
	}

	bbox, err := ComputeBBox(g)
	if err != nil {
		t.Fatalf("ComputeBBox failed: %v", err)
	}

	want := []float64{-122.0, 37.0, -119.0, 40.0}
	for i, v := range want {
		if bbox[i] != v {
			t.Errorf("bbox[%d] = %f, want %f", i, bbox[i], v)
		}
	}
}

func TestComputeBBox_UnsupportedType(t *testing.T) {
	g := &Geometry{
		Type:        "GeometryCollection",
		Coordinates: json.RawMessage(`[]`),
	}

	if _, err := ComputeBBox(g); err == nil {
		t.Error("expected error for unsupported geometry type")
	}
}

func TestComputeBBox_Nil(t *testing.T) {
	if _, err := ComputeBBox(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
}
