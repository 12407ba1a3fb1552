// Package search resolves tile requests against a STAC-style catalog search
// endpoint: it builds the search query, executes it, and narrows the
// returned features down to renderable asset URLs.
package search

import (
	"github.com/planetlabs/go-stac"
)

// Response is the subset of a catalog search response this service reads:
// a feature collection where each feature carries a bbox and an asset map.
type Response struct {
	Type     string       `json:"type"`
	Features []*stac.Item `json:"features"`
}
