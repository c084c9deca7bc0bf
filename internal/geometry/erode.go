package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Erode shrinks the closed ring r inward by distance d. Rectangles shrink
// their bounds. Other convex rings offset every edge inward and intersect the
// neighbouring offset lines. A nil ring is returned when the ring collapses.
//
// Non-convex rings are returned unchanged; every boundary produced by the
// crs package is convex.
func Erode(r orb.Ring, d float64) orb.Ring {
	r = EnsureClosed(r)
	if IsEmpty(r) {
		return nil
	}
	if d <= 0 || math.IsNaN(d) {
		return r
	}

	if b, ok := RectangleOf(r); ok {
		if 2*d >= b.Max[0]-b.Min[0] || 2*d >= b.Max[1]-b.Min[1] {
			return nil
		}
		return RectRing(orb.Bound{
			Min: orb.Point{b.Min[0] + d, b.Min[1] + d},
			Max: orb.Point{b.Max[0] - d, b.Max[1] - d},
		})
	}

	if !isConvex(r) {
		return r
	}

	ccw := orient(r, true)
	n := len(ccw) - 1
	type line struct{ p, dir orb.Point }
	lines := make([]line, 0, n)
	for i := 0; i < n; i++ {
		a, b := ccw[i], ccw[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// inward normal of a counter-clockwise edge points left
		nx, ny := -dy/length, dx/length
		lines = append(lines, line{
			p:   orb.Point{a[0] + nx*d, a[1] + ny*d},
			dir: orb.Point{dx, dy},
		})
	}
	if len(lines) < 3 {
		return nil
	}

	out := make(orb.Ring, 0, len(lines)+1)
	for i := range lines {
		prev := lines[(i+len(lines)-1)%len(lines)]
		cur := lines[i]
		p, ok := lineIntersection(prev.p, prev.dir, cur.p, cur.dir)
		if !ok {
			p = cur.p
		}
		out = append(out, p)
	}
	out = EnsureClosed(out)
	if len(out) != len(lines)+1 {
		return nil
	}

	// an over-eroded ring reverses its edges or loses its area
	for i, l := range lines {
		ex, ey := out[i+1][0]-out[i][0], out[i+1][1]-out[i][1]
		if ex*l.dir[0]+ey*l.dir[1] <= 0 {
			return nil
		}
	}
	if signedArea(out) <= 0 {
		return nil
	}
	return out
}

func lineIntersection(p, r, q, s orb.Point) (orb.Point, bool) {
	denom := r[0]*s[1] - r[1]*s[0]
	if denom == 0 {
		return orb.Point{}, false
	}
	t := ((q[0]-p[0])*s[1] - (q[1]-p[1])*s[0]) / denom
	return orb.Point{p[0] + r[0]*t, p[1] + r[1]*t}, true
}

func isConvex(r orb.Ring) bool {
	n := len(r) - 1
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := r[i], r[(i+1)%n], r[(i+2)%n]
		cross := (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}
