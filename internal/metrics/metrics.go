// Package metrics exposes Prometheus metrics for the tiler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider owns the service's metric registry.
type Provider struct {
	reg *prometheus.Registry

	// CatalogCacheHits counts catalog factory lookups served from cache.
	CatalogCacheHits prometheus.Counter
	// CatalogCacheMisses counts catalog factory lookups that required
	// construction.
	CatalogCacheMisses prometheus.Counter

	// SearchFeatures observes the feature count returned per search.
	SearchFeatures prometheus.Histogram
	// SearchFeaturesDropped counts features dropped by the precise bbox
	// filter or for lacking a known asset key.
	SearchFeaturesDropped prometheus.Counter

	// RenderDuration observes render hand-off latency by mode
	// (direct or search).
	RenderDuration *prometheus.HistogramVec
	// TilesServed counts tile responses by mode and outcome.
	TilesServed *prometheus.CounterVec
}

// Init builds the registry with standard process collectors and the
// service's own collectors registered.
func Init() *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{
		reg: reg,
		CatalogCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiler_catalog_cache_hits_total",
			Help: "Catalog factory lookups served from the memoization cache.",
		}),
		CatalogCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiler_catalog_cache_misses_total",
			Help: "Catalog factory lookups that required construction.",
		}),
		SearchFeatures: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tiler_search_features",
			Help:    "Features returned per catalog search.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		SearchFeaturesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiler_search_features_dropped_total",
			Help: "Search features dropped during precise filtering and asset resolution.",
		}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tiler_render_duration_seconds",
			Help:    "Render engine hand-off latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		TilesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiler_tiles_served_total",
			Help: "Tile responses by resolution mode and outcome.",
		}, []string{"mode", "outcome"}),
	}

	reg.MustRegister(
		p.CatalogCacheHits,
		p.CatalogCacheMisses,
		p.SearchFeatures,
		p.SearchFeaturesDropped,
		p.RenderDuration,
		p.TilesServed,
	)

	return p
}

// Handler returns the scrape endpoint handler.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Registerer exposes the registry for additional collectors.
func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
