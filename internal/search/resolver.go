package search

import (
	"encoding/json"
	"log/slog"

	"github.com/planetlabs/go-stac"
	"github.com/robert-malhotra/virtual-tiler/internal/tile"
	"github.com/robert-malhotra/virtual-tiler/pkg/geojson"
)

// DefaultAssetKeys is the asset lookup order used when none is configured:
// the pre-composited visual asset first, then the blue band as a stand-in
// for sources published without one.
var DefaultAssetKeys = []string{"visual", "B2"}

// Resolver narrows search features down to an ordered asset URL list.
type Resolver struct {
	assetKeys []string
	logger    *slog.Logger
}

// NewResolver creates a Resolver with the given asset key priority order.
func NewResolver(assetKeys []string, logger *slog.Logger) *Resolver {
	if len(assetKeys) == 0 {
		assetKeys = DefaultAssetKeys
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{assetKeys: assetKeys, logger: logger}
}

// Resolve filters features to those whose bbox actually overlaps the tile
// and extracts one asset URL per survivor. The search endpoint has already
// applied a coarse spatial filter, but its index precision is too loose for
// sub-kilometer tiles, so near misses are dropped here. Features without a
// usable bbox or without any known asset key are skipped, never fatal.
// Response order is preserved: it becomes the compositing stack order.
func (r *Resolver) Resolve(features []*stac.Item, tileBox tile.BoundingBox) []string {
	urls := make([]string, 0, len(features))

	for _, feature := range features {
		box, ok := featureBounds(feature)
		if !ok {
			r.logger.Warn("dropping feature without usable bbox",
				slog.String("id", feature.Id),
			)
			continue
		}
		if !tile.Overlaps(box, tileBox) {
			continue
		}

		href, ok := r.assetURL(feature)
		if !ok {
			r.logger.Warn("dropping feature without a known asset key",
				slog.String("id", feature.Id),
			)
			continue
		}
		urls = append(urls, href)
	}

	r.logger.Debug("resolved features",
		slog.Int("feature_count", len(features)),
		slog.Int("resolved_count", len(urls)),
	)

	return urls
}

// assetURL returns the feature's asset URL, trying the configured keys
// strictly in priority order.
func (r *Resolver) assetURL(feature *stac.Item) (string, bool) {
	for _, key := range r.assetKeys {
		if asset, ok := feature.Assets[key]; ok && asset != nil && asset.Href != "" {
			return asset.Href, true
		}
	}
	return "", false
}

// featureBounds returns the feature's bounding box, computing one from its
// geometry when the bbox member is absent.
func featureBounds(feature *stac.Item) (tile.BoundingBox, bool) {
	if box, err := tile.FromSlice(feature.Bbox); err == nil {
		return box, true
	}

	if feature.Geometry == nil {
		return tile.BoundingBox{}, false
	}
	raw, err := json.Marshal(feature.Geometry)
	if err != nil {
		return tile.BoundingBox{}, false
	}
	var geom geojson.Geometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return tile.BoundingBox{}, false
	}
	bbox, err := geojson.ComputeBBox(&geom)
	if err != nil {
		return tile.BoundingBox{}, false
	}
	box, err := tile.FromSlice(bbox)
	if err != nil {
		return tile.BoundingBox{}, false
	}
	return box, true
}
