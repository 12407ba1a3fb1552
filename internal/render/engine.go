// Package render is the boundary to the external rendering engine, which
// owns raster I/O, reprojection, compositing, and image encoding. This
// process only assembles the engine's inputs.
package render

import (
	"context"
	"net/http"

	"github.com/robert-malhotra/virtual-tiler/internal/catalog"
	"github.com/robert-malhotra/virtual-tiler/internal/source"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// Engine renders composited tiles and reads raster metadata.
//
// Render is a pure pass-through: the source list (in stacking order, later
// sources on top), output format, and transformation go to the engine
// unchanged, and its headers and bytes come back unchanged. An empty source
// list is a valid call and yields a blank tile. There are no retries and no
// output caching at this layer.
type Engine interface {
	Render(ctx context.Context, t tile.Tile, sources []source.Source, format, transformation string) (http.Header, []byte, error)

	// Inspect reads bounds and resolution from a raster's header.
	Inspect(ctx context.Context, url string) (*catalog.RasterMeta, error)
}
