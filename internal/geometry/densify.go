package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Densify returns a copy of g where no segment is longer than maxSegment.
// Inserted vertices are evenly spaced along the original segment.
func Densify(g orb.Geometry, maxSegment float64) orb.Geometry {
	if maxSegment <= 0 || math.IsNaN(maxSegment) || math.IsInf(maxSegment, 0) {
		return orb.Clone(g)
	}

	switch g := g.(type) {
	case orb.LineString:
		return orb.LineString(densifyPath(g, maxSegment))
	case orb.Ring:
		return orb.Ring(densifyPath(g, maxSegment))
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			out[i] = densifyPath(ls, maxSegment)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			out[i] = densifyPath(r, maxSegment)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = Densify(p, maxSegment).(orb.Polygon)
		}
		return out
	}
	return orb.Clone(g)
}

func densifyPath(pts []orb.Point, maxSegment float64) []orb.Point {
	if len(pts) < 2 {
		return append([]orb.Point(nil), pts...)
	}
	out := make([]orb.Point, 0, len(pts))
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		out = append(out, a)
		length := math.Hypot(b[0]-a[0], b[1]-a[1])
		if math.IsNaN(length) || math.IsInf(length, 0) {
			continue
		}
		steps := int(math.Ceil(length / maxSegment))
		for s := 1; s < steps; s++ {
			out = append(out, lerp(a, b, float64(s)/float64(steps)))
		}
	}
	return append(out, pts[len(pts)-1])
}
