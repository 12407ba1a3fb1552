package search

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/robert-malhotra/virtual-tiler/internal/tile"
)

func TestQueryValues_Required(t *testing.T) {
	q := Query{
		BBox:  tile.BoundingBox{West: -122.5, South: 37.5, East: -122, North: 38},
		Limit: 500,
	}

	values := q.Values()

	bbox := values.Get("bbox")
	if bbox != "-122.5,37.5,-122,38" {
		t.Errorf("bbox = %q, want -122.5,37.5,-122,38", bbox)
	}
	if strings.Contains(bbox, " ") {
		t.Error("bbox must not contain whitespace")
	}
	if values.Get("limit") != "500" {
		t.Errorf("limit = %q, want 500", values.Get("limit"))
	}

	for _, absent := range []string{"query", "time", "latestFilter"} {
		if values.Has(absent) {
			t.Errorf("%s must be omitted when unset", absent)
		}
	}
}

func TestQueryValues_Filters(t *testing.T) {
	q := Query{
		BBox:          tile.BoundingBox{West: -1, South: -1, East: 1, North: 1},
		Limit:         500,
		Collection:    "naip",
		Constellation: "NAIP",
		Time:          "2017-01-01/2018-01-01",
	}

	values := q.Values()

	var filter map[string]map[string]string
	if err := json.Unmarshal([]byte(values.Get("query")), &filter); err != nil {
		t.Fatalf("query is not valid JSON: %v", err)
	}
	if filter["collection"]["eq"] != "naip" {
		t.Errorf("collection filter = %v", filter["collection"])
	}
	if filter["eo:constellation"]["eq"] != "NAIP" {
		t.Errorf("constellation filter = %v", filter["eo:constellation"])
	}

	if values.Get("time") != "2017-01-01/2018-01-01" {
		t.Errorf("time = %q, want verbatim pass-through", values.Get("time"))
	}
}

func TestQueryValues_LatestFilter(t *testing.T) {
	q := Query{
		BBox:                tile.BoundingBox{West: -1, South: -1, East: 1, North: 1},
		Limit:               500,
		FootprintProperties: []string{"eo:column", "eo:row"},
	}

	values := q.Values()

	var directive map[string][]string
	if err := json.Unmarshal([]byte(values.Get("latestFilter")), &directive); err != nil {
		t.Fatalf("latestFilter is not valid JSON: %v", err)
	}
	if len(directive["properties"]) != 2 || directive["properties"][0] != "eo:column" {
		t.Errorf("unexpected latestFilter: %v", directive)
	}
}

func TestFromRequest(t *testing.T) {
	params := url.Values{}
	params.Set("url", "https://search.example.com/stac/search")
	params.Set("collection", "naip")
	params.Set("time", "2017-01-01/2018-01-01")
	params.Set("footprintProperties", "eo:column, eo:row")

	tl := tile.New(16, 16642, 23807)
	q := FromRequest(params, tl, 500, "Bearer token")

	if q.BBox != tl.Bounds() {
		t.Errorf("query bbox %v does not match tile bounds", q.BBox)
	}
	if q.Limit != 500 {
		t.Errorf("limit = %d, want 500", q.Limit)
	}
	if q.Collection != "naip" {
		t.Errorf("collection = %q", q.Collection)
	}
	if q.Time != "2017-01-01/2018-01-01" {
		t.Errorf("time = %q", q.Time)
	}
	if len(q.FootprintProperties) != 2 || q.FootprintProperties[1] != "eo:row" {
		t.Errorf("footprint properties = %v", q.FootprintProperties)
	}
	if q.Authorization != "Bearer token" {
		t.Errorf("authorization = %q", q.Authorization)
	}
}

func TestFromRequest_ConstellationAlias(t *testing.T) {
	tl := tile.New(10, 100, 100)

	// Short alias only.
	params := url.Values{}
	params.Set("constellation", "NAIP")
	if q := FromRequest(params, tl, 500, ""); q.Constellation != "NAIP" {
		t.Errorf("constellation = %q, want NAIP", q.Constellation)
	}

	// Qualified name only.
	params = url.Values{}
	params.Set("eo:constellation", "sentinel-2")
	if q := FromRequest(params, tl, 500, ""); q.Constellation != "sentinel-2" {
		t.Errorf("constellation = %q, want sentinel-2", q.Constellation)
	}

	// Both given: the short alias wins.
	params = url.Values{}
	params.Set("constellation", "NAIP")
	params.Set("eo:constellation", "sentinel-2")
	if q := FromRequest(params, tl, 500, ""); q.Constellation != "NAIP" {
		t.Errorf("constellation = %q, want short alias to win", q.Constellation)
	}
}
