// Package catalog resolves raster source URLs into cached metadata used for
// tile rendering: geographic bounds, native resolution, zoom range, and
// per-source rendering recipes.
package catalog

import (
	"path"
	"strconv"
	"strings"

	"github.com/robert-malhotra/virtual-tiler/internal/source"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// resampleMethods are the resampling algorithm names accepted by the
// rendering engine. Unknown names in Params.Resample are dropped.
var resampleMethods = map[string]bool{
	"nearest":      true,
	"bilinear":     true,
	"cubic":        true,
	"cubic_spline": true,
	"lanczos":      true,
	"average":      true,
	"mode":         true,
	"gauss":        true,
	"max":          true,
	"min":          true,
	"med":          true,
	"q1":           true,
	"q3":           true,
}

// Params identifies one catalog: a raster URL plus optional rendering
// options. The zero value of every optional field means "unset".
type Params struct {
	// URL locates the raster. Required.
	URL string

	// RGB maps bands to output channels, as a comma-separated band list
	// (e.g. "3,2,1").
	RGB string

	// Nodata overrides the raster's nodata value.
	Nodata string

	// LinearStretch enables per-band linear contrast stretching.
	LinearStretch bool

	// Resample selects the resampling algorithm.
	Resample string

	// Expr is a band arithmetic expression evaluated by the engine.
	Expr string
}

// Catalog is the resolved metadata for one raster source. Catalogs are
// immutable after construction and shared across requests via the factory
// cache.
type Catalog struct {
	URI        string
	Bounds     tile.BoundingBox
	Center     [3]float64
	MinZoom    int
	MaxZoom    int
	Name       string
	Resolution [2]float64
	Headers    map[string]string

	params Params
}

// newCatalog derives a Catalog from inspected raster metadata, following
// the zoom heuristics of the upstream tiler: the approximate zoom comes
// from the coarser native resolution axis, with 3 levels of overzoom and
// 10 levels of underzoom allowed.
func newCatalog(p Params, meta *RasterMeta) *Catalog {
	approx := tile.ZoomForResolution(maxf(meta.Resolution[0], meta.Resolution[1]))

	lon, lat := meta.Bounds.Center()

	minZoom := approx - 10
	if minZoom < 0 {
		minZoom = 0
	}
	centerZoom := approx - 3
	if centerZoom < 0 {
		centerZoom = 0
	}

	return &Catalog{
		URI:        p.URL,
		Bounds:     meta.Bounds,
		Center:     [3]float64{lon, lat, float64(centerZoom)},
		MinZoom:    minZoom,
		MaxZoom:    approx + 3,
		Name:       displayName(p.URL),
		Resolution: meta.Resolution,
		Headers:    meta.Headers,
		params:     p,
	}
}

// Sources returns the catalog's raster as a single-element source list with
// the rendering recipes implied by its params.
func (c *Catalog) Sources() []source.Source {
	recipes := source.Recipes{"imagery": true}

	if c.params.RGB != "" {
		var bands []int
		for _, s := range strings.Split(c.params.RGB, ",") {
			b, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				bands = nil
				break
			}
			bands = append(bands, b)
		}
		if bands != nil {
			recipes["rgb_bands"] = bands
		}
	}

	if c.params.Nodata != "" {
		if v, err := strconv.ParseFloat(c.params.Nodata, 64); err == nil {
			recipes["nodata"] = v
		}
	}

	if c.params.LinearStretch {
		recipes["linear_stretch"] = "per_band"
	}

	if resampleMethods[c.params.Resample] {
		recipes["resample"] = c.params.Resample
	}

	if c.params.Expr != "" {
		recipes["expr"] = c.params.Expr
	}

	return []source.Source{{
		URL:        c.URI,
		Name:       c.Name,
		Resolution: c.Resolution,
		Recipes:    recipes,
	}}
}

// displayName derives a human-readable name from the raster URL's final
// path element, without its extension.
func displayName(rawURL string) string {
	base := path.Base(strings.TrimSuffix(rawURL, "/"))
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "untitled"
	}
	return base
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
