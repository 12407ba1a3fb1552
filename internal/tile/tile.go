// Package tile provides slippy-map tile coordinates and WGS84 bounding box math.
package tile

import (
	"fmt"
	"math"
)

// earthCircumference is the WGS84 equatorial circumference in meters,
// used for resolution-to-zoom conversion.
const earthCircumference = 2 * math.Pi * 6378137

// tileSize is the pixel size of one tile at scale 1.
const tileSize = 256

// Tile addresses one tile in the standard slippy-map quad-tree scheme.
// Scale is the output scale multiplier (1 for standard, 2 for @2x output).
type Tile struct {
	Z     int
	X     int
	Y     int
	Scale int
}

// New creates a Tile at the given coordinate with the default scale of 1.
func New(z, x, y int) Tile {
	return Tile{Z: z, X: x, Y: y, Scale: 1}
}

// String returns the tile in z/x/y form.
func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Bounds returns the tile's geographic extent in WGS84 degrees.
func (t Tile) Bounds() BoundingBox {
	n := math.Exp2(float64(t.Z))
	return BoundingBox{
		West:  float64(t.X)/n*360 - 180,
		South: tileLat(float64(t.Y+1), n),
		East:  float64(t.X+1)/n*360 - 180,
		North: tileLat(float64(t.Y), n),
	}
}

func tileLat(y, n float64) float64 {
	rad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/n)))
	return rad * 180 / math.Pi
}

// BoundingBox is an axis-aligned geographic extent in WGS84 degrees,
// ordered (west, south, east, north).
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Slice returns the box as [west, south, east, north].
func (b BoundingBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// FromSlice builds a BoundingBox from a [west, south, east, north] slice.
// Six-element slices are treated as a 3D bbox,
// [west, south, minElev, east, north, maxElev], and the elevations dropped.
// Slices with fewer than four elements are rejected.
func FromSlice(v []float64) (BoundingBox, error) {
	if len(v) >= 6 {
		return BoundingBox{West: v[0], South: v[1], East: v[3], North: v[4]}, nil
	}
	if len(v) < 4 {
		return BoundingBox{}, fmt.Errorf("bbox needs 4 elements, got %d", len(v))
	}
	return BoundingBox{West: v[0], South: v[1], East: v[2], North: v[3]}, nil
}

// Center returns the box's midpoint as (lon, lat).
func (b BoundingBox) Center() (float64, float64) {
	return (b.West + b.East) / 2, (b.South + b.North) / 2
}

// Overlaps reports whether two boxes intersect. The comparison is strict:
// boxes that only touch at an edge or corner do not overlap. Both arguments
// must use (west, south, east, north) axis order.
func Overlaps(a, b BoundingBox) bool {
	return a.West < b.East && a.East > b.West && a.North > b.South && a.South < b.North
}

// ZoomForResolution returns the smallest zoom level whose per-pixel ground
// resolution at the equator is at least as fine as res (meters per pixel).
func ZoomForResolution(res float64) int {
	if res <= 0 {
		return 0
	}
	z := math.Ceil(math.Log2(earthCircumference / (res * tileSize)))
	if z < 0 {
		return 0
	}
	return int(z)
}
