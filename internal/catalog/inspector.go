package catalog

import (
	"context"

	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// RasterMeta is the raw metadata read from a raster's header by the
// rendering engine.
type RasterMeta struct {
	// Bounds is the raster extent in WGS84 degrees.
	Bounds tile.BoundingBox `json:"bounds"`

	// Resolution is the native ground resolution in meters, (x, y).
	Resolution [2]float64 `json:"resolution"`

	// BandCount is the number of raster bands.
	BandCount int `json:"bandCount"`

	// Headers are response headers the tile server should propagate for
	// this raster (e.g. cache-control hints from the object store).
	Headers map[string]string `json:"headers,omitempty"`
}

// Inspector reads raster metadata. Implemented by the rendering engine
// client; raster I/O never happens in this process.
type Inspector interface {
	Inspect(ctx context.Context, url string) (*RasterMeta, error)
}
