package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Simplify runs Douglas-Peucker at tolerance tol over every part of g and
// returns a new geometry; g is not modified.
//
// A line that collapses below two distinct vertices and a ring that
// collapses below four vertices are dropped. A dropped exterior ring drops
// its whole polygon. With preserveTopology the original part or ring is
// kept in place of a collapsed one, so the part count never changes.
//
// Points pass through unchanged. A nil result means everything collapsed.
func Simplify(g orb.Geometry, tol float64, preserveTopology bool) orb.Geometry {
	if tol <= 0 {
		return orb.Clone(g)
	}
	dp := simplify.DouglasPeucker(tol)

	switch g := g.(type) {
	case orb.Point, orb.MultiPoint:
		return orb.Clone(g)
	case orb.LineString:
		ls, ok := simplifyLine(dp, g, preserveTopology)
		if !ok {
			return nil
		}
		return ls
	case orb.MultiLineString:
		var out orb.MultiLineString
		for _, part := range g {
			if ls, ok := simplifyLine(dp, part, preserveTopology); ok {
				out = append(out, ls)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case orb.Polygon:
		p, ok := simplifyPolygon(dp, g, preserveTopology)
		if !ok {
			return nil
		}
		return p
	case orb.MultiPolygon:
		var out orb.MultiPolygon
		for _, part := range g {
			if p, ok := simplifyPolygon(dp, part, preserveTopology); ok {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func simplifyLine(dp *simplify.DouglasPeuckerSimplifier, ls orb.LineString, preserve bool) (orb.LineString, bool) {
	if len(ls) < 2 {
		return nil, false
	}
	out, _ := dp.Simplify(orb.Clone(ls)).(orb.LineString)
	if len(out) < 2 || (len(out) == 2 && out[0] == out[1]) {
		if preserve {
			return orb.Clone(ls).(orb.LineString), true
		}
		return nil, false
	}
	return out, true
}

func simplifyRing(dp *simplify.DouglasPeuckerSimplifier, r orb.Ring, preserve bool) (orb.Ring, bool) {
	if len(r) < 4 {
		return nil, false
	}
	out, _ := dp.Simplify(orb.LineString(orb.Clone(r).(orb.Ring))).(orb.LineString)
	ring := orb.Ring(out)
	if len(ring) < 4 || RingArea(ring) == 0 {
		if preserve {
			return orb.Clone(r).(orb.Ring), true
		}
		return nil, false
	}
	return EnsureClosed(ring), true
}

func simplifyPolygon(dp *simplify.DouglasPeuckerSimplifier, p orb.Polygon, preserve bool) (orb.Polygon, bool) {
	if len(p) == 0 {
		return nil, false
	}
	outer, ok := simplifyRing(dp, p[0], preserve)
	if !ok {
		return nil, false
	}
	out := orb.Polygon{outer}
	for _, hole := range p[1:] {
		if h, ok := simplifyRing(dp, hole, preserve); ok {
			out = append(out, h)
		}
	}
	return out, true
}
