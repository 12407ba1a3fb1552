package search

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

// constellationParams lists the inbound parameter names accepted for the
// constellation filter, in precedence order: the short alias wins when both
// are supplied.
var constellationParams = []string{"constellation", "eo:constellation"}

// Query is one search call against a catalog search endpoint. Only the
// bounding box and result cap are always sent; the optional filters are
// included only when set.
type Query struct {
	BBox  tile.BoundingBox
	Limit int

	// Collection restricts results to one collection (exact match).
	Collection string

	// Constellation restricts results by the eo:constellation property
	// (exact match).
	Constellation string

	// Time is a datetime or datetime range, passed through verbatim.
	Time string

	// FootprintProperties names the feature properties that identify a
	// footprint; when set, the endpoint is asked to keep only the latest
	// feature per footprint.
	FootprintProperties []string

	// Authorization is the caller's Authorization header, forwarded
	// verbatim so the endpoint can apply its own access control.
	Authorization string
}

// FromRequest builds a Query for a tile from the inbound request
// parameters, applying the documented parameter precedence.
func FromRequest(params url.Values, t tile.Tile, limit int, authorization string) Query {
	q := Query{
		BBox:          t.Bounds(),
		Limit:         limit,
		Collection:    params.Get("collection"),
		Constellation: firstParam(params, constellationParams),
		Time:          params.Get("time"),
		Authorization: authorization,
	}

	if fp := params.Get("footprintProperties"); fp != "" {
		for _, name := range strings.Split(fp, ",") {
			if name = strings.TrimSpace(name); name != "" {
				q.FootprintProperties = append(q.FootprintProperties, name)
			}
		}
	}

	return q
}

// firstParam returns the value of the first name in names present in
// params, evaluating candidates strictly in order.
func firstParam(params url.Values, names []string) string {
	for _, name := range names {
		if v := params.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// Values serializes the query for the search endpoint's GET interface.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("bbox", formatBBox(q.BBox))
	values.Set("limit", strconv.Itoa(q.Limit))

	filter := map[string]map[string]string{}
	if q.Collection != "" {
		filter["collection"] = map[string]string{"eq": q.Collection}
	}
	if q.Constellation != "" {
		filter["eo:constellation"] = map[string]string{"eq": q.Constellation}
	}
	if len(filter) > 0 {
		encoded, _ := json.Marshal(filter)
		values.Set("query", string(encoded))
	}

	if q.Time != "" {
		values.Set("time", q.Time)
	}

	if len(q.FootprintProperties) > 0 {
		encoded, _ := json.Marshal(map[string][]string{
			"properties": q.FootprintProperties,
		})
		values.Set("latestFilter", string(encoded))
	}

	return values
}

// formatBBox serializes a box as "west,south,east,north" with no internal
// whitespace, the flat numeric form search endpoints expect.
func formatBBox(b tile.BoundingBox) string {
	parts := make([]string, 0, 4)
	for _, v := range b.Slice() {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}
