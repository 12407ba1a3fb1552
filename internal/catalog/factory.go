package catalog

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrNoCatalog is returned whenever a source cannot be resolved into usable
// metadata: missing URL, unreachable raster, malformed header. Callers never
// see the underlying cause; it is logged here.
var ErrNoCatalog = errors.New("no catalog available")

// DefaultCacheSize bounds the factory cache when no size is configured.
const DefaultCacheSize = 1024

// cacheEntry records the outcome of one construction, success or failure.
// Failures are cached too, so a known-bad URL does not trigger repeated
// inspection.
type cacheEntry struct {
	cat *Catalog
	err error
}

// Factory constructs catalogs and memoizes them for the process lifetime in
// a capacity-bounded LRU keyed by the canonical parameter set. Concurrent
// requests for the same uncached key share a single construction.
type Factory struct {
	inspector Inspector
	cache     *lru.Cache[string, cacheEntry]
	group     singleflight.Group
	logger    *slog.Logger

	onHit  func()
	onMiss func()
}

// NewFactory creates a Factory backed by the given inspector. size bounds
// the cache; non-positive values fall back to DefaultCacheSize.
func NewFactory(inspector Inspector, size int, logger *slog.Logger) *Factory {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, cacheEntry](size)
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		inspector: inspector,
		cache:     cache,
		logger:    logger,
	}
}

// WithCacheObserver registers callbacks invoked on cache hits and misses,
// used to feed service metrics.
func (f *Factory) WithCacheObserver(onHit, onMiss func()) *Factory {
	f.onHit = onHit
	f.onMiss = onMiss
	return f
}

// Get returns the catalog for the given parameter set, constructing it on
// first use. A missing URL fails immediately; any construction error is
// collapsed to ErrNoCatalog. Failures are cached alongside successes, except
// when the inspection was cut short by the caller's context.
func (f *Factory) Get(ctx context.Context, p Params) (*Catalog, error) {
	if p.URL == "" {
		return nil, ErrNoCatalog
	}

	key := p.cacheKey()

	if entry, ok := f.cache.Get(key); ok {
		if f.onHit != nil {
			f.onHit()
		}
		return entry.cat, entry.err
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		// A concurrent caller may have finished while we waited.
		if entry, ok := f.cache.Get(key); ok {
			return entry, nil
		}
		if f.onMiss != nil {
			f.onMiss()
		}

		entry, cache := f.construct(ctx, p)
		if cache {
			f.cache.Add(key, entry)
		}
		return entry, nil
	})
	if err != nil {
		// Unreachable: construct never returns a group error.
		return nil, ErrNoCatalog
	}

	entry := v.(cacheEntry)
	return entry.cat, entry.err
}

// construct runs one inspection. The returned bool says whether the outcome
// may be cached: an inspection aborted by context cancellation or deadline
// expiry says nothing about the source itself and must not poison the key.
func (f *Factory) construct(ctx context.Context, p Params) (cacheEntry, bool) {
	f.logger.InfoContext(ctx, "initializing catalog", slog.String("url", p.URL))

	meta, err := f.inspector.Inspect(ctx, p.URL)
	if err != nil {
		f.logger.ErrorContext(ctx, "catalog construction failed",
			slog.String("url", p.URL),
			slog.String("error", err.Error()),
		)
		aborted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		return cacheEntry{err: ErrNoCatalog}, !aborted
	}

	return cacheEntry{cat: newCatalog(p, meta)}, true
}
