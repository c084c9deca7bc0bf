package geoview

import (
	"reflect"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Project returns el reprojected into dst.
//
// When el is already in dst the same element is returned, except for images
// extending past the x limits of a periodic dst, which are warped into
// range. Otherwise a new element with a fresh identity is built:
//
//   - Points and VectorField: MultiPoint records are flattened into one
//     record per point and records whose projected coordinate is not
//     finite are dropped.
//   - Path, Contours and Polygons: records whose attributes vary along the
//     geometry are projected as a whole and a transform error fails the
//     call with *ErrProjectionFailure. Constant-valued records are split
//     into parts, clipped to the dst domain and projected piece by piece;
//     pieces that fail are dropped and counted in the returned Diagnostics.
//   - Image: the raster is warped according to ProjectOptions.Raster.
//
// A non-empty element that loses every record logs a warning; it is not an
// error.
func (p *Projector) Project(el *Element, dst crs.CRS) (*Element, Diagnostics, error) {
	if el == nil {
		return nil, Diagnostics{}, &ErrConfiguration{Field: "element", Reason: "element is nil"}
	}
	if dst == nil {
		return nil, Diagnostics{}, &ErrConfiguration{Field: "crs", Reason: "destination CRS is required"}
	}
	if crs.Equal(el.CRS(), dst) && !beyondLimits(el, dst) {
		return el, Diagnostics{}, nil
	}

	switch el.Kind() {
	case KindPoints, KindVectorField:
		out, diag := p.projectPoints(el, dst)
		return out, diag, nil
	case KindPath, KindContours, KindPolygons:
		return p.projectPaths(el, dst)
	case KindImage:
		out, err := p.projectImage(el, dst)
		return out, Diagnostics{}, err
	default:
		return nil, Diagnostics{}, &ErrUnsupportedGeometry{Kind: el.Kind().String()}
	}
}

// beyondLimits reports whether el is an image reaching outside the x limits
// of the periodic system c.
func beyondLimits(el *Element, c crs.CRS) bool {
	if el.Kind() != KindImage || !c.Periodic() || el.Raster().Empty() {
		return false
	}
	lo, hi := c.XLimits()
	b := el.Raster().Bounds
	return b.Min[0] < lo || b.Max[0] > hi
}

func (p *Projector) projectPoints(el *Element, dst crs.CRS) (*Element, Diagnostics) {
	var (
		diag Diagnostics
		flat []Record
	)
	for _, rec := range el.records {
		switch g := rec.Geometry.(type) {
		case orb.Point:
			flat = append(flat, rec)
		case orb.MultiPoint:
			for i, pt := range g {
				flat = append(flat, Record{
					id:         uuid.New(),
					Geometry:   pt,
					Attributes: pointAttributes(rec.Attributes, i, len(g)),
				})
			}
		}
	}

	pts := make([]orb.Point, len(flat))
	for i, rec := range flat {
		pts[i] = rec.Geometry.(orb.Point)
	}
	projected := crs.TransformPoints(el.CRS(), dst, pts)

	out := make([]Record, 0, len(flat))
	for i, rec := range flat {
		if !geometry.PointIsFinite(projected[i]) {
			diag.drop("point (%g, %g) has no finite image", pts[i][0], pts[i][1])
			continue
		}
		rec.Geometry = projected[i]
		out = append(out, rec)
	}

	if len(out) == 0 && len(el.records) > 0 {
		p.warnEmpty(el, dst)
	}
	return newElement(el.Kind(), dst, out), diag
}

// pointAttributes copies attrs for the i-th of n flattened points. Slices
// of length n are indexed.
func pointAttributes(attrs map[string]any, i, n int) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice && rv.Len() == n {
			out[k] = rv.Index(i).Interface()
			continue
		}
		out[k] = v
	}
	return out
}

func (p *Projector) projectPaths(el *Element, dst crs.CRS) (*Element, Diagnostics, error) {
	src := el.CRS()
	domain := p.boundaryInSource(src, dst)

	var (
		diag Diagnostics
		out  []Record
	)
	for _, rec := range el.records {
		if continuous(rec.Attributes) {
			projected, ok, err := p.projectContinuous(rec, src, dst, domain)
			if err != nil {
				return nil, diag, err
			}
			if ok {
				out = append(out, projected)
			}
			continue
		}
		out = append(out, p.projectContour(rec, src, dst, domain, &diag)...)
	}

	if len(out) == 0 && len(el.records) > 0 {
		p.warnEmpty(el, dst)
	}
	return newElement(el.Kind(), dst, out), diag, nil
}

// projectContinuous projects a record whose attributes vary along it. The
// record keeps its identity.
func (p *Projector) projectContinuous(rec Record, src, dst crs.CRS, domain orb.Geometry) (Record, bool, error) {
	if pts, ok := crs.QuickTransform(src, dst, geometry.Points(rec.Geometry)); ok {
		if g, err := withPoints(rec.Geometry, pts); err == nil {
			rec.Geometry = g
			return rec, true, nil
		}
	}

	g := crs.WrapGeometry(rec.Geometry, src)
	if !geometry.IsEmpty(domain) {
		clipped, err := clipToDomain(g, domain)
		if err != nil {
			return rec, false, &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
		}
		g = clipped
	}
	if geometry.IsEmpty(g) {
		return rec, false, nil
	}

	projected, err := crs.ProjectGeometry(g, src, dst)
	if err != nil {
		return rec, false, &ErrProjectionFailure{Src: src.Name(), Dst: dst.Name(), Cause: err}
	}
	if geometry.IsEmpty(projected) {
		return rec, false, nil
	}
	rec.Geometry = projected
	return rec, true, nil
}

// projectContour projects a constant-valued record part by part. Every
// surviving piece becomes its own record; a single piece keeps the record
// identity.
func (p *Projector) projectContour(rec Record, src, dst crs.CRS, domain orb.Geometry, diag *Diagnostics) []Record {
	var pieces []orb.Geometry
	for _, part := range geometry.Parts(crs.WrapGeometry(rec.Geometry, src)) {
		if !geometry.IsFinite(part) {
			diag.drop("record %s: %s has non-finite coordinates", rec.id, geometry.String(part))
			continue
		}

		clipped := part
		if !geometry.IsEmpty(domain) {
			c, err := clipToDomain(part, domain)
			if err != nil {
				diag.drop("record %s: intersect with %s domain: %v", rec.id, dst.Name(), err)
				continue
			}
			clipped = c
		}

		for _, piece := range geometry.Parts(clipped) {
			projected, err := crs.ProjectGeometry(piece, src, dst)
			if err != nil {
				diag.drop("record %s: %v", rec.id, err)
				continue
			}
			if !geometry.IsEmpty(projected) {
				pieces = append(pieces, projected)
			}
		}
	}

	out := make([]Record, len(pieces))
	for i, g := range pieces {
		id := rec.id
		if len(pieces) > 1 {
			id = uuid.New()
		}
		out[i] = Record{id: id, Geometry: g, Attributes: copyAttributes(rec.Attributes)}
	}
	return out
}

func (p *Projector) warnEmpty(el *Element, dst crs.CRS) {
	p.logger.Warn("no geometries survived projection",
		zap.String("src", el.CRS().Name()),
		zap.String("dst", dst.Name()),
		zap.String("kind", el.Kind().String()),
		zap.Int("records", len(el.records)))
}

// continuous reports whether some attribute is a slice holding more than
// one distinct value.
func continuous(attrs map[string]any) bool {
	for _, v := range attrs {
		switch v := v.(type) {
		case []float64:
			for _, x := range v[min(1, len(v)):] {
				if x != v[0] {
					return true
				}
			}
		case []int:
			for _, x := range v[min(1, len(v)):] {
				if x != v[0] {
					return true
				}
			}
		case []string:
			for _, x := range v[min(1, len(v)):] {
				if x != v[0] {
					return true
				}
			}
		case []any:
			for _, x := range v[min(1, len(v)):] {
				if !reflect.DeepEqual(x, v[0]) {
					return true
				}
			}
		}
	}
	return false
}

// withPoints rebuilds g with its vertices replaced, in storage order, by pts.
// It fails unless pts holds exactly one point per vertex.
func withPoints(g orb.Geometry, pts []orb.Point) (orb.Geometry, error) {
	i := 0
	out, err := geometry.Transform(g, func(orb.Point) (orb.Point, error) {
		if i >= len(pts) {
			return orb.Point{}, errors.Newf("vertex %d out of range", i)
		}
		p := pts[i]
		i++
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if i != len(pts) {
		return nil, errors.Newf("%d points for %d vertices", len(pts), i)
	}
	return out, nil
}
