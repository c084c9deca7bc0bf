package geoview

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Resampler culls and simplifies elements for a viewport.
//
// For every source element it keeps a state holding a spatial index over
// the records, memoized record areas and simplified geometries keyed by
// zoom bucket. States live in a memory-bounded LRU cache keyed by element
// identity, so panning and zooming over the same element reuses earlier
// work.
//
// A Resampler is safe for concurrent use. Calls for the same source are
// serialized; calls for different sources run in parallel.
//
// Example:
//
//	rs, err := geoview.NewResampler(geoview.DefaultResamplerOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	viewport := geoview.Extent{MinX: -72, MinY: 41, MaxX: -70, MaxY: 43}
//	visible, err := rs.Resample(coastline, &viewport, geoview.DefaultResampleConfig())
type Resampler struct {
	cache  *stateCache
	logger *zap.Logger

	indexBuilds    atomic.Int64
	simplifyHits   atomic.Int64
	simplifyMisses atomic.Int64
}

// resampleState is everything remembered about one source element.
type resampleState struct {
	mu         sync.Mutex
	domain     orb.Bound
	domainArea float64
	index      *spatialIndex
	records    []Record
	simplify   map[simplifyKey]orb.Geometry
	area       map[uuid.UUID]float64
}

type simplifyKey struct {
	id   uuid.UUID
	zoom int
}

// ResamplerStats reports cache occupancy and effectiveness.
type ResamplerStats struct {
	CachedSources  int   // Number of source states currently cached
	SourceAccesses int   // Lookups served by the currently cached states
	UsedMemory     int64 // Estimated memory held by cached states
	MaxMemory      int64 // Memory limit, 0 for unlimited
	IndexBuilds    int64 // Spatial indexes built since creation
	SimplifyHits   int64 // Simplified geometries served from cache
	SimplifyMisses int64 // Simplifications computed
}

// HitRate returns the fraction of simplifications served from cache.
func (s ResamplerStats) HitRate() float64 {
	total := s.SimplifyHits + s.SimplifyMisses
	if total == 0 {
		return 0
	}
	return float64(s.SimplifyHits) / float64(total)
}

// NewResampler creates a resampler.
func NewResampler(opts ResamplerOptions) (*Resampler, error) {
	if opts.CacheSize < 0 {
		return nil, &ErrConfiguration{Field: "CacheSize", Reason: "must not be negative"}
	}
	logger := loggerOrNop(opts.Logger)
	return &Resampler{
		cache:  newStateCache(opts.CacheSize, logger),
		logger: logger,
	}, nil
}

// Resample returns the records of el that are worth drawing in viewport,
// simplified for its zoom level.
//
// A nil viewport means the element's data extent. The first call for an
// element fixes its reference domain; later viewports are bucketed into
// zoom levels relative to it. A record survives when its area is at least
// DisplayThreshold of the viewport area and its geometry truly intersects
// the viewport. Point geometries have no area and skip the threshold.
//
// The result is a new element with the same kind and CRS, holding the
// surviving records in their original order with their original identities
// and attributes. An empty result is not an error.
func (r *Resampler) Resample(el *Element, viewport *Extent, cfg ResampleConfig) (*Element, error) {
	if el == nil {
		return nil, &ErrConfiguration{Field: "element", Reason: "element is nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if el.Kind() == KindImage {
		return nil, &ErrUnsupportedGeometry{Kind: el.Kind().String()}
	}

	vp := el.DataExtent()
	if viewport != nil {
		vp = *viewport
	}
	if vp.IsEmpty() {
		return newElement(el.Kind(), el.CRS(), nil), nil
	}

	st, built := r.cache.Get(el.ID(), func() *resampleState {
		return r.buildState(el, vp)
	})
	if built {
		r.indexBuilds.Add(1)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	b := vp.Bound()
	viewArea := vp.Area()
	zoom := zoomLevel(viewArea, st.domainArea, cfg.ZoomLevels)
	tol := math.Sqrt(viewArea) * cfg.ToleranceFactor

	var (
		out   []Record
		grown int64
	)
	for _, pos := range st.index.Query(b) {
		rec := st.records[pos]

		area, ok := st.area[rec.id]
		if !ok {
			area = geometry.RepresentativeArea(rec.Geometry)
			st.area[rec.id] = area
		}
		if !isPuntal(rec.Geometry) && area/viewArea < cfg.DisplayThreshold {
			continue
		}
		if !geometry.Intersects(rec.Geometry, b) {
			continue
		}

		key := simplifyKey{id: rec.id, zoom: zoom}
		g, hit := st.simplify[key]
		if hit && cfg.Cache && !cfg.Clip {
			r.simplifyHits.Add(1)
		} else {
			r.simplifyMisses.Add(1)
			g = geometry.Simplify(rec.Geometry, tol, cfg.PreserveTopology)
			if geometry.IsEmpty(g) {
				continue
			}
			if cfg.Cache && !hit {
				st.simplify[key] = g
				grown += estimateGeometryMemory(g)
			}
		}

		if cfg.Clip {
			clipped, err := geometry.IntersectBound(g, b)
			if err != nil || geometry.IsEmpty(clipped) {
				continue
			}
			g = clipped
		}
		out = append(out, Record{id: rec.id, Geometry: g, Attributes: rec.Attributes})
	}

	r.cache.Grow(el.ID(), grown)
	return newElement(el.Kind(), el.CRS(), out), nil
}

func (r *Resampler) buildState(el *Element, vp Extent) *resampleState {
	records := el.Records()
	st := &resampleState{
		domain:     vp.Bound(),
		domainArea: vp.Area(),
		index:      newSpatialIndex(records),
		records:    records,
		simplify:   make(map[simplifyKey]orb.Geometry),
		area:       make(map[uuid.UUID]float64, len(records)),
	}
	r.logger.Debug("built resample index",
		zap.String("element", el.ID().String()),
		zap.String("kind", el.Kind().String()),
		zap.Int("records", len(records)),
		zap.Int("indexed", st.index.Len()))
	return st
}

// Forget drops the cached state of el.
func (r *Resampler) Forget(el *Element) {
	if el != nil {
		r.cache.Remove(el.ID())
	}
}

// Reset drops every cached state.
func (r *Resampler) Reset() {
	r.cache.Clear()
}

// Stats returns cache statistics.
func (r *Resampler) Stats() ResamplerStats {
	cs := r.cache.Stats()
	return ResamplerStats{
		CachedSources:  cs.StateCount,
		SourceAccesses: cs.TotalAccess,
		UsedMemory:     cs.UsedMemory,
		MaxMemory:      cs.MaxMemory,
		IndexBuilds:    r.indexBuilds.Load(),
		SimplifyHits:   r.simplifyHits.Load(),
		SimplifyMisses: r.simplifyMisses.Load(),
	}
}

// zoomLevel buckets the ratio between the viewport and the reference
// domain: 0 at the domain scale, one level per halving of the area, capped
// at levels. A non-positive ratio is the deepest level and a NaN ratio the
// shallowest.
func zoomLevel(viewArea, domainArea float64, levels int) int {
	ratio := viewArea / domainArea
	switch {
	case math.IsNaN(ratio):
		return 0
	case ratio <= 0:
		return levels
	}
	z := math.Round(math.Log2(1 / math.Min(ratio, 1)))
	return int(math.Max(0, math.Min(float64(levels), z)))
}

func isPuntal(g orb.Geometry) bool {
	k, err := geometry.KindOf(g)
	return err == nil && k.Puntal()
}
