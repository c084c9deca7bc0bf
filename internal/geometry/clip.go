package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	ctgeom "github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// Intersect returns the part of g that lies inside the closed ring clipRing.
// A nil result with a nil error means the intersection is empty.
//
// Axis-aligned rectangular clip rings use the orb rectangle clipper. Other
// rings clip polygons with the ctessum polygon boolean engine and lines by
// splitting them at edge crossings. Panics raised by the clippers on
// degenerate input are reported as ErrClip.
func Intersect(g orb.Geometry, clipRing orb.Ring) (result orb.Geometry, err error) {
	if _, err := KindOf(g); err != nil {
		return nil, err
	}
	clipRing = EnsureClosed(clipRing)
	if IsEmpty(clipRing) || IsEmpty(g) {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.Wrapf(ErrClip, "%v", r)
		}
	}()

	if b, ok := RectangleOf(clipRing); ok {
		return clipBound(g, b), nil
	}
	return clipRingGeometry(g, clipRing), nil
}

// IntersectBound returns the part of g inside b, or nil when nothing is.
func IntersectBound(g orb.Geometry, b orb.Bound) (orb.Geometry, error) {
	return Intersect(g, RectRing(b))
}

func clipBound(g orb.Geometry, b orb.Bound) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		if b.Contains(g) {
			return g
		}
		return nil
	case orb.MultiPoint:
		var out orb.MultiPoint
		for _, p := range g {
			if b.Contains(p) {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	// orb's clippers work in place on some inputs
	clipped := clip.Geometry(b, orb.Clone(g))
	return normalize(clipped)
}

// normalize drops empty parts and collapses single-member multi geometries.
func normalize(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	switch g := g.(type) {
	case orb.MultiLineString:
		var out orb.MultiLineString
		for _, ls := range g {
			if !IsEmpty(ls) {
				out = append(out, ls)
			}
		}
		switch len(out) {
		case 0:
			return nil
		case 1:
			return out[0]
		}
		return out
	case orb.Polygon:
		if IsEmpty(g) {
			return nil
		}
		out := orb.Polygon{g[0]}
		for _, h := range g[1:] {
			if !IsEmpty(h) {
				out = append(out, h)
			}
		}
		return out
	case orb.MultiPolygon:
		var out orb.MultiPolygon
		for _, p := range g {
			if np := normalize(p); np != nil {
				out = append(out, np.(orb.Polygon))
			}
		}
		switch len(out) {
		case 0:
			return nil
		case 1:
			return out[0]
		}
		return out
	}
	if IsEmpty(g) {
		return nil
	}
	return g
}

func clipRingGeometry(g orb.Geometry, ring orb.Ring) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		if planar.RingContains(ring, g) {
			return g
		}
		return nil
	case orb.MultiPoint:
		var out orb.MultiPoint
		for _, p := range g {
			if planar.RingContains(ring, p) {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case orb.LineString:
		return normalize(clipLine(g, ring))
	case orb.MultiLineString:
		var out orb.MultiLineString
		for _, ls := range g {
			out = append(out, clipLine(ls, ring)...)
		}
		return normalize(out)
	case orb.Polygon:
		return normalize(clipPolygon(orb.MultiPolygon{g}, ring))
	case orb.MultiPolygon:
		return normalize(clipPolygon(g, ring))
	}
	return nil
}

// clipLine splits ls at every crossing with the ring edges and keeps the
// pieces whose midpoint lies inside the ring.
func clipLine(ls orb.LineString, ring orb.Ring) orb.MultiLineString {
	var (
		out     orb.MultiLineString
		current orb.LineString
	)
	flush := func() {
		if len(current) >= 2 {
			out = append(out, current)
		}
		current = nil
	}

	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		ts := []float64{0, 1}
		for j := 0; j < len(ring)-1; j++ {
			if t, ok := segmentCrossing(a, b, ring[j], ring[j+1]); ok {
				ts = append(ts, t)
			}
		}
		sort.Float64s(ts)

		for k := 0; k < len(ts)-1; k++ {
			t0, t1 := ts[k], ts[k+1]
			if t1-t0 <= 0 {
				continue
			}
			p0 := lerp(a, b, t0)
			p1 := lerp(a, b, t1)
			mid := lerp(a, b, (t0+t1)/2)
			if !planar.RingContains(ring, mid) {
				flush()
				continue
			}
			if len(current) == 0 {
				current = append(current, p0)
			} else if current[len(current)-1] != p0 {
				flush()
				current = append(current, p0)
			}
			current = append(current, p1)
		}
	}
	flush()
	return out
}

// segmentCrossing returns the parameter along a-b where it meets c-d.
func segmentCrossing(a, b, c, d orb.Point) (float64, bool) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	denom := rx*sy - ry*sx
	if denom == 0 {
		return 0, false
	}
	qx, qy := c[0]-a[0], c[1]-a[1]
	t := (qx*sy - qy*sx) / denom
	u := (qx*ry - qy*rx) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func lerp(a, b orb.Point, t float64) orb.Point {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

func clipPolygon(mp orb.MultiPolygon, ring orb.Ring) orb.Geometry {
	subject := make(ctgeom.Polygon, 0)
	for _, p := range mp {
		for _, r := range p {
			subject = append(subject, toPath(r))
		}
	}
	result := subject.Intersection(ctgeom.Polygon{toPath(ring)})
	if result == nil {
		return nil
	}

	var rings []orb.Ring
	for _, poly := range result.Polygons() {
		for _, path := range poly {
			r := fromPath(path)
			if !IsEmpty(r) {
				rings = append(rings, r)
			}
		}
	}
	return AssembleRings(rings)
}

// toPath converts r to a ctessum path without the closing vertex.
func toPath(r orb.Ring) ctgeom.Path {
	n := len(r)
	if n > 1 && r[0] == r[n-1] {
		n--
	}
	path := make(ctgeom.Path, n)
	for i := 0; i < n; i++ {
		path[i] = ctgeom.Point{X: r[i][0], Y: r[i][1]}
	}
	return path
}

func fromPath(path ctgeom.Path) orb.Ring {
	r := make(orb.Ring, len(path))
	for i, p := range path {
		r[i] = orb.Point{p.X, p.Y}
	}
	return EnsureClosed(r)
}

// AssembleRings groups unordered rings into polygons by nesting depth. Rings
// at even depth are exteriors, rings at odd depth are holes of the smallest
// exterior containing them. Exteriors are counter-clockwise and holes
// clockwise.
func AssembleRings(rings []orb.Ring) orb.Geometry {
	if len(rings) == 0 {
		return nil
	}

	depth := make([]int, len(rings))
	for i, r := range rings {
		probe := ringProbe(r)
		for j, other := range rings {
			if i != j && planar.RingContains(other, probe) {
				depth[i]++
			}
		}
	}

	var polygons orb.MultiPolygon
	owner := make(map[int]int)
	for i, r := range rings {
		if depth[i]%2 == 0 {
			owner[i] = len(polygons)
			polygons = append(polygons, orb.Polygon{orient(r, true)})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		probe := ringProbe(r)
		best, bestArea := -1, math.Inf(1)
		for j, outer := range rings {
			if depth[j] != depth[i]-1 || !planar.RingContains(outer, probe) {
				continue
			}
			if a := RingArea(outer); a < bestArea {
				best, bestArea = j, a
			}
		}
		if best < 0 {
			continue
		}
		idx := owner[best]
		polygons[idx] = append(polygons[idx], orient(r, false))
	}

	if len(polygons) == 1 {
		return polygons[0]
	}
	return polygons
}

// ringProbe returns the midpoint of r's first edge nudged towards the
// vertex centroid, so it does not sit on r itself.
func ringProbe(r orb.Ring) orb.Point {
	var cx, cy float64
	n := len(r) - 1
	for _, p := range r[:n] {
		cx += p[0]
		cy += p[1]
	}
	cx /= float64(n)
	cy /= float64(n)
	mid := lerp(r[0], r[1], 0.5)
	return lerp(mid, orb.Point{cx, cy}, 1e-6)
}

func orient(r orb.Ring, ccw bool) orb.Ring {
	if (signedArea(r) > 0) == ccw {
		return r
	}
	out := make(orb.Ring, len(r))
	for i := range r {
		out[i] = r[len(r)-1-i]
	}
	return out
}

// Intersects reports whether g shares any point with b. Unlike a bounding
// box test it rejects geometries whose envelope overlaps b while the
// geometry itself does not.
func Intersects(g orb.Geometry, b orb.Bound) bool {
	switch g := g.(type) {
	case orb.Point:
		return b.Contains(g)
	case orb.MultiPoint:
		for _, p := range g {
			if b.Contains(p) {
				return true
			}
		}
		return false
	case orb.LineString:
		return lineIntersectsBound(g, b)
	case orb.MultiLineString:
		for _, ls := range g {
			if lineIntersectsBound(ls, b) {
				return true
			}
		}
		return false
	case orb.Polygon:
		return polygonIntersectsBound(g, b)
	case orb.MultiPolygon:
		for _, p := range g {
			if polygonIntersectsBound(p, b) {
				return true
			}
		}
		return false
	}
	return false
}

func lineIntersectsBound(ls orb.LineString, b orb.Bound) bool {
	if !ls.Bound().Intersects(b) {
		return false
	}
	for _, p := range ls {
		if b.Contains(p) {
			return true
		}
	}
	edges := RectRing(b)
	for i := 0; i < len(ls)-1; i++ {
		for j := 0; j < 4; j++ {
			if _, ok := segmentCrossing(ls[i], ls[i+1], edges[j], edges[j+1]); ok {
				return true
			}
		}
	}
	return false
}

func polygonIntersectsBound(p orb.Polygon, b orb.Bound) bool {
	if len(p) == 0 || !p.Bound().Intersects(b) {
		return false
	}
	if lineIntersectsBound(orb.LineString(p[0]), b) {
		return true
	}
	// b entirely inside the polygon interior
	center := b.Center()
	return planar.PolygonContains(p, center)
}

// String renders a short human readable description used in diagnostics.
func String(g orb.Geometry) string {
	k, err := KindOf(g)
	if err != nil {
		return fmt.Sprintf("%T", g)
	}
	return fmt.Sprintf("%s(%d vertices)", k, VertexCount(g))
}
