package geoview

import (
	"math"
	"sync"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// extentSamples is the number of x samples used to resolve periodic extents.
const extentSamples = 10000

// Projector reprojects extents and elements between coordinate reference
// systems. It is safe for concurrent use.
//
// The projector caches, per (source, destination) pair, the destination
// domain expressed in source coordinates.
//
// Example:
//
//	p, err := geoview.NewProjector(geoview.DefaultProjectOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ext, err := p.ProjectExtent(geoview.Extent{MinX: -10, MinY: 40, MaxX: 10, MaxY: 60},
//	    crs.NewPlateCarree(0), crs.Mercator)
type Projector struct {
	opts   ProjectOptions
	logger *zap.Logger

	mu         sync.Mutex
	boundaries map[string]orb.Geometry
}

// NewProjector creates a projector from validated options.
func NewProjector(opts ProjectOptions) (*Projector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Projector{
		opts:       opts,
		logger:     loggerOrNop(opts.Logger),
		boundaries: make(map[string]orb.Geometry),
	}, nil
}

var defaultProjector = func() *Projector {
	p, _ := NewProjector(DefaultProjectOptions())
	return p
}()

// ProjectExtent reprojects e from src to dst with the default projector.
func ProjectExtent(e Extent, src, dst crs.CRS) (Extent, error) {
	return defaultProjector.ProjectExtent(e, src, dst)
}

// ProjectExtent reprojects the box e from src to dst coordinates.
//
// The box is clamped to src's domain, shrunk inward by Epsilon, resolved
// across the wrap seam when src is periodic, and intersected with both the
// eroded src boundary and the dst domain before being projected. The
// bounding box of the projected region is returned.
//
// Degenerate input and regions outside the dst domain yield EmptyExtent
// with a nil error. A transform failure is reported as
// *ErrProjectionFailure.
func (p *Projector) ProjectExtent(e Extent, src, dst crs.CRS) (Extent, error) {
	if src == nil || dst == nil {
		return EmptyExtent(), &ErrConfiguration{Field: "crs", Reason: "source and destination CRS are required"}
	}
	if e.IsEmpty() {
		return EmptyExtent(), nil
	}
	x1, y1, x2, y2 := e.MinX, e.MinY, e.MaxX, e.MaxY

	if src.Kind() == crs.KindPlateCarree && src.CentralLongitude() != 0 && src.Kind() != dst.Kind() {
		offset := src.CentralLongitude()
		x1 -= offset
		x2 -= offset
		src = crs.NewPlateCarree(0)
	}

	ymin, ymax := src.YLimits()
	y1 = clamp(y1, ymin, ymax)
	y2 = clamp(y2, ymin, ymax)

	eps := p.opts.Epsilon
	x1, x2 = x1+eps, x2-eps
	y1, y2 = y1+eps, y2-eps
	if x1 > x2 || y1 > y2 {
		return EmptyExtent(), nil
	}

	xmin, xmax := src.XLimits()
	if src.Periodic() {
		x1, x2 = wrappedRange(x1, x2, xmin, xmax-xmin)
	} else {
		x1 = clamp(x1, xmin, xmax)
		x2 = clamp(x2, xmin, xmax)
	}
	if x1 >= x2 || y1 >= y2 {
		return EmptyExtent(), nil
	}

	r := Extent{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}.Polygon()

	var result orb.Geometry
	if crs.Equal(src, dst) {
		g, err := geometry.Intersect(orb.Polygon{src.Boundary()}, r[0])
		if err != nil {
			return EmptyExtent(), &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
		}
		result = g
	} else {
		eroded := geometry.Erode(src.Boundary(), src.Threshold())
		if eroded == nil {
			return EmptyExtent(), nil
		}
		gsrc, err := geometry.Intersect(orb.Polygon{eroded}, r[0])
		if err != nil {
			return EmptyExtent(), &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
		}
		if geometry.IsEmpty(gsrc) {
			return EmptyExtent(), nil
		}

		if domain := p.boundaryInSource(src, dst); !geometry.IsEmpty(domain) {
			narrowed, err := intersectAreas(gsrc, domain)
			if err != nil {
				return EmptyExtent(), &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
			}
			gsrc = narrowed
		}
		if geometry.IsEmpty(gsrc) {
			return EmptyExtent(), nil
		}

		projected, err := crs.ProjectGeometry(gsrc, src, dst)
		if err != nil {
			return EmptyExtent(), &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
		}
		result = projected
	}

	if geometry.IsEmpty(result) {
		return EmptyExtent(), nil
	}
	return ExtentFromBound(result.Bound()), nil
}

// boundaryInSource returns dst's domain in src coordinates, or nil when it
// cannot be projected.
func (p *Projector) boundaryInSource(src, dst crs.CRS) orb.Geometry {
	key := src.Name() + "->" + dst.Name()

	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.boundaries[key]; ok {
		return g
	}

	g, err := crs.ProjectGeometry(orb.Polygon{dst.Boundary()}, dst, src)
	if err != nil {
		p.logger.Debug("destination boundary not representable in source",
			zap.String("src", src.Name()),
			zap.String("dst", dst.Name()),
			zap.Error(err))
		g = nil
	}
	p.boundaries[key] = g
	return g
}

// wrappedRange samples [x1, x2] and returns the extremes after wrapping each
// sample into [lo, lo+period).
func wrappedRange(x1, x2, lo, period float64) (float64, float64) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	step := (x2 - x1) / float64(extentSamples-1)
	for i := 0; i < extentSamples; i++ {
		x := crs.Wrap(x1+float64(i)*step, lo, period)
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}
	return minX, maxX
}

// intersectAreas intersects two polygonal geometries. Rectangular parts of a
// are used as clip windows over b; other parts are clipped by every
// exterior ring of b.
func intersectAreas(a, b orb.Geometry) (orb.Geometry, error) {
	var parts []orb.Geometry
	for _, pa := range polygons(a) {
		if _, ok := geometry.RectangleOf(pa[0]); ok && len(pa) == 1 {
			piece, err := geometry.Intersect(b, pa[0])
			if err != nil {
				return nil, err
			}
			parts = append(parts, geometry.Parts(piece)...)
			continue
		}
		for _, pb := range polygons(b) {
			piece, err := geometry.Intersect(pa, pb[0])
			if err != nil {
				return nil, err
			}
			parts = append(parts, geometry.Parts(piece)...)
		}
	}
	return geometry.Collect(parts), nil
}

// clipToDomain intersects any geometry with the exterior rings of domain.
func clipToDomain(g, domain orb.Geometry) (orb.Geometry, error) {
	var parts []orb.Geometry
	for _, pd := range polygons(domain) {
		piece, err := geometry.Intersect(g, pd[0])
		if err != nil {
			return nil, err
		}
		parts = append(parts, geometry.Parts(piece)...)
	}
	return geometry.Collect(parts), nil
}

func polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			return []orb.Polygon{g}
		}
	case orb.MultiPolygon:
		out := make([]orb.Polygon, 0, len(g))
		for _, p := range g {
			if len(p) > 0 {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
