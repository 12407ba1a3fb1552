package catalog

import (
	"context"
	"strconv"

	"github.com/robert-malhotra/virtual-tiler/internal/source"
)

// Materializer turns resolved asset URLs into render-ready sources.
//
// It deliberately constructs only one catalog, from the first URL, and
// stamps that catalog's name and resolution onto every source. Building a
// catalog per URL would mean one raster inspection per feature, which is
// far too slow for searches returning hundreds of features. The trade-off
// is that all sources are assumed to share the representative source's
// resolution.
type Materializer struct {
	factory *Factory
}

// NewMaterializer creates a Materializer backed by the given factory.
func NewMaterializer(factory *Factory) *Materializer {
	return &Materializer{factory: factory}
}

// Materialize builds one source per URL, in order. An empty URL list yields
// an empty source list without touching the factory. If the representative
// catalog cannot be constructed the whole call fails with ErrNoCatalog.
func (m *Materializer) Materialize(ctx context.Context, urls []string) ([]source.Source, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	rep, err := m.factory.Get(ctx, Params{URL: urls[0]})
	if err != nil {
		return nil, err
	}

	sources := make([]source.Source, 0, len(urls))
	for i, u := range urls {
		sources = append(sources, source.Source{
			URL:        u,
			Name:       rep.Name + strconv.Itoa(i),
			Resolution: rep.Resolution,
			Recipes:    source.Recipes{"imagery": true},
		})
	}
	return sources, nil
}
