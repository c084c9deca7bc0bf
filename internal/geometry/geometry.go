package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// IsEmpty reports whether g carries no usable coordinates: nil, a line with
// fewer than two distinct vertices, or a polygon whose exterior ring is
// degenerate.
func IsEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case nil:
		return true
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		for _, p := range g[min(1, len(g)):] {
			if p != g[0] {
				return false
			}
		}
		return true
	case orb.MultiLineString:
		for _, ls := range g {
			if !IsEmpty(ls) {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(g) < 4 || RingArea(g) == 0
	case orb.Polygon:
		return len(g) == 0 || IsEmpty(g[0])
	case orb.MultiPolygon:
		for _, p := range g {
			if !IsEmpty(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !IsEmpty(c) {
				return false
			}
		}
		return true
	case orb.Bound:
		return g.IsEmpty()
	default:
		return true
	}
}

// IsFinite reports whether every coordinate of g is finite.
func IsFinite(g orb.Geometry) bool {
	finite := true
	EachPoint(g, func(p orb.Point) {
		if !PointIsFinite(p) {
			finite = false
		}
	})
	return finite
}

// PointIsFinite reports whether both ordinates of p are finite.
func PointIsFinite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

// EachPoint calls fn for every vertex of g in storage order.
func EachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			EachPoint(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			EachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			EachPoint(p, fn)
		}
	case orb.Collection:
		for _, c := range g {
			EachPoint(c, fn)
		}
	}
}

// VertexCount returns the number of vertices stored in g.
func VertexCount(g orb.Geometry) int {
	n := 0
	EachPoint(g, func(orb.Point) { n++ })
	return n
}

// Points returns the vertices of g as a flat slice.
func Points(g orb.Geometry) []orb.Point {
	pts := make([]orb.Point, 0, VertexCount(g))
	EachPoint(g, func(p orb.Point) { pts = append(pts, p) })
	return pts
}

// Transform returns a copy of g with fn applied to every vertex. The first
// error returned by fn aborts the walk.
func Transform(g orb.Geometry, fn func(orb.Point) (orb.Point, error)) (orb.Geometry, error) {
	var firstErr error
	apply := func(p orb.Point) orb.Point {
		if firstErr != nil {
			return p
		}
		q, err := fn(p)
		if err != nil {
			firstErr = err
		}
		return q
	}
	out := mapPoints(g, apply)
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Translate returns a copy of g shifted by (dx, dy).
func Translate(g orb.Geometry, dx, dy float64) orb.Geometry {
	return mapPoints(g, func(p orb.Point) orb.Point {
		return orb.Point{p[0] + dx, p[1] + dy}
	})
}

func mapPoints(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return fn(g)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(g))
		for i, p := range g {
			out[i] = fn(p)
		}
		return out
	case orb.LineString:
		out := make(orb.LineString, len(g))
		for i, p := range g {
			out[i] = fn(p)
		}
		return out
	case orb.Ring:
		out := make(orb.Ring, len(g))
		for i, p := range g {
			out[i] = fn(p)
		}
		return out
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			out[i] = mapPoints(ls, fn).(orb.LineString)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			out[i] = mapPoints(r, fn).(orb.Ring)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = mapPoints(p, fn).(orb.Polygon)
		}
		return out
	default:
		return g
	}
}

// Parts splits g into its non-empty single-part components.
func Parts(g orb.Geometry) []orb.Geometry {
	var parts []orb.Geometry
	switch g := g.(type) {
	case orb.MultiPoint:
		for _, p := range g {
			parts = append(parts, p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if !IsEmpty(ls) {
				parts = append(parts, ls)
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if !IsEmpty(p) {
				parts = append(parts, p)
			}
		}
	case orb.Collection:
		for _, c := range g {
			parts = append(parts, Parts(c)...)
		}
	default:
		if !IsEmpty(g) {
			parts = append(parts, g)
		}
	}
	return parts
}

// Collect joins single-part geometries of one family back into a geometry.
// One part is returned as-is, several become the matching multi-part type.
// Mixed families are returned as an orb.Collection.
func Collect(parts []orb.Geometry) orb.Geometry {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}

	var (
		points   orb.MultiPoint
		lines    orb.MultiLineString
		polygons orb.MultiPolygon
		other    orb.Collection
	)
	for _, p := range parts {
		switch p := p.(type) {
		case orb.Point:
			points = append(points, p)
		case orb.MultiPoint:
			points = append(points, p...)
		case orb.LineString:
			lines = append(lines, p)
		case orb.MultiLineString:
			lines = append(lines, p...)
		case orb.Polygon:
			polygons = append(polygons, p)
		case orb.MultiPolygon:
			polygons = append(polygons, p...)
		default:
			other = append(other, p)
		}
	}

	switch {
	case len(other) == 0 && len(lines) == 0 && len(polygons) == 0:
		return points
	case len(other) == 0 && len(points) == 0 && len(polygons) == 0:
		return lines
	case len(other) == 0 && len(points) == 0 && len(lines) == 0:
		return polygons
	}
	return orb.Collection(parts)
}

// RingArea returns the unsigned planar area enclosed by r.
func RingArea(r orb.Ring) float64 {
	return math.Abs(signedArea(r))
}

// signedArea is positive for counter-clockwise rings.
func signedArea(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(r)-1; i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	last := r[len(r)-1]
	if last != r[0] {
		sum += last[0]*r[0][1] - r[0][0]*last[1]
	}
	return sum / 2
}

// Area returns the planar area of polygonal geometries and zero otherwise.
func Area(g orb.Geometry) float64 {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		return math.Abs(planar.Area(g))
	}
	return 0
}

// BoundArea returns the area of the rectangle b.
func BoundArea(b orb.Bound) float64 {
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// RepresentativeArea is the exact area for polygonal geometries and the
// area of the bounding rectangle for everything else.
func RepresentativeArea(g orb.Geometry) float64 {
	if IsEmpty(g) {
		return 0
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return Area(g)
	}
	return BoundArea(g.Bound())
}

// RectRing returns the closed counter-clockwise ring tracing b.
func RectRing(b orb.Bound) orb.Ring {
	return orb.Ring{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
		{b.Min[0], b.Min[1]},
	}
}

// EnsureClosed returns r with the first coordinate repeated at the end when
// it is not already closed.
func EnsureClosed(r orb.Ring) orb.Ring {
	if len(r) < 3 {
		return r
	}
	if r[0] == r[len(r)-1] {
		return r
	}
	closed := make(orb.Ring, len(r)+1)
	copy(closed, r)
	closed[len(r)] = r[0]
	return closed
}

// RectangleOf reports whether r is an axis-aligned rectangle and returns its
// bound when it is.
func RectangleOf(r orb.Ring) (orb.Bound, bool) {
	if len(r) != 5 || r[0] != r[4] {
		return orb.Bound{}, false
	}
	b := r.Bound()
	for _, p := range r[:4] {
		if p[0] != b.Min[0] && p[0] != b.Max[0] {
			return orb.Bound{}, false
		}
		if p[1] != b.Min[1] && p[1] != b.Max[1] {
			return orb.Bound{}, false
		}
	}
	area := BoundArea(b)
	if area == 0 || RingArea(r) != area {
		return orb.Bound{}, false
	}
	return b, true
}
