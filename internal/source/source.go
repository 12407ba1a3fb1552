// Package source defines the raster source descriptor handed to the
// rendering engine.
package source

// Recipes is a free-form options bag interpreted by the rendering engine,
// e.g. {"imagery": true} for plain RGB compositing.
type Recipes map[string]any

// Source is one raster input to a compositing render call. Sources are
// built fresh per request and never cached.
type Source struct {
	// URL locates the raster data.
	URL string `json:"url"`

	// Name is a display name, unique within one render call.
	Name string `json:"name"`

	// Resolution is the native ground resolution in meters, (x, y).
	Resolution [2]float64 `json:"resolution"`

	// Recipes carries rendering directives for this source.
	Recipes Recipes `json:"recipes,omitempty"`
}
