package crs

import (
	"math"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// TransformPoints converts pts from src to dst coordinates. Points that
// cannot be converted come back as (NaN, NaN); the input is not modified.
func TransformPoints(src, dst CRS, pts []orb.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	if Equal(src, dst) {
		copy(out, pts)
		return out
	}
	for i, p := range pts {
		q, err := transformPoint(src, dst, p)
		if err != nil {
			q = orb.Point{math.NaN(), math.NaN()}
		}
		out[i] = q
	}
	return out
}

func transformPoint(src, dst CRS, p orb.Point) (orb.Point, error) {
	lon, lat, err := src.ToGeodetic(p[0], p[1])
	if err != nil {
		return p, err
	}
	x, y, err := dst.FromGeodetic(lon, lat)
	if err != nil {
		return p, err
	}
	return orb.Point{x, y}, nil
}

// ProjectGeometry converts g from src to dst coordinates.
//
// Segments are densified to src's threshold before conversion so curved
// images of straight edges stay faithful. For periodic destinations the
// converted paths are unwrapped to remove seam jumps and then cut along the
// x limits, each piece shifted back into range.
//
// A vertex that cannot be converted fails the whole geometry.
func ProjectGeometry(g orb.Geometry, src, dst CRS) (orb.Geometry, error) {
	kind, err := geometry.KindOf(g)
	if err != nil {
		return nil, err
	}
	if Equal(src, dst) {
		return orb.Clone(g), nil
	}

	dense := geometry.Densify(g, src.Threshold())
	out, err := geometry.Transform(dense, func(p orb.Point) (orb.Point, error) {
		return transformPoint(src, dst, p)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "project %s from %s to %s", kind, src.Name(), dst.Name())
	}

	if !dst.Periodic() || kind.Puntal() {
		return out, nil
	}
	return splitAtLimits(unwrap(out, Period(dst)), dst), nil
}

// unwrap removes jumps larger than half a period between consecutive
// vertices of every path in g.
func unwrap(g orb.Geometry, period float64) orb.Geometry {
	path := func(pts []orb.Point) {
		offset := 0.0
		for i := 1; i < len(pts); i++ {
			x := pts[i][0] + offset
			prev := pts[i-1][0]
			switch {
			case x-prev > period/2:
				offset -= period
				x -= period
			case x-prev < -period/2:
				offset += period
				x += period
			}
			pts[i][0] = x
		}
	}

	switch g := g.(type) {
	case orb.LineString:
		path(g)
	case orb.MultiLineString:
		for _, ls := range g {
			path(ls)
		}
	case orb.Polygon:
		for _, r := range g {
			path(r)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			for _, r := range p {
				path(r)
			}
		}
	}
	return g
}

// splitAtLimits cuts g along dst's x limits and shifts every out-of-range
// piece back by whole periods. Pieces come back in band order, west first.
func splitAtLimits(g orb.Geometry, dst CRS) orb.Geometry {
	lo, hi := dst.XLimits()
	period := hi - lo
	b := g.Bound()
	tol := period * 1e-9
	if !finite(b.Min[0], b.Max[0]) || (b.Min[0] >= lo-tol && b.Max[0] <= hi+tol) {
		return g
	}

	ylo, yhi := dst.YLimits()
	ylo = math.Min(ylo, b.Min[1]) - 1
	yhi = math.Max(yhi, b.Max[1]) + 1

	var parts []orb.Geometry
	first := int(math.Floor((b.Min[0] - lo) / period))
	last := int(math.Floor((b.Max[0] - lo) / period))
	for k := first; k <= last; k++ {
		band := orb.Bound{
			Min: orb.Point{lo + float64(k)*period, ylo},
			Max: orb.Point{hi + float64(k)*period, yhi},
		}
		piece, err := geometry.IntersectBound(g, band)
		if err != nil || geometry.IsEmpty(piece) {
			continue
		}
		parts = append(parts, geometry.Parts(geometry.Translate(piece, -float64(k)*period, 0))...)
	}
	if len(parts) == 0 {
		return g
	}
	return geometry.Collect(parts)
}

// QuickTransform converts pts without densifying or clipping when that is
// known to be exact: src and dst are the same system, or both are
// PlateCarree differing only in central longitude. It declines, returning
// false, when the shifted points would leave dst's limits.
func QuickTransform(src, dst CRS, pts []orb.Point) ([]orb.Point, bool) {
	var offset float64
	switch {
	case Equal(src, dst):
	case src.Kind() == KindPlateCarree && dst.Kind() == KindPlateCarree:
		offset = src.CentralLongitude() - dst.CentralLongitude()
	default:
		return nil, false
	}

	xmin, xmax := dst.XLimits()
	ymin, ymax := dst.YLimits()
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		x, y := p[0]+offset, p[1]
		if !finite(x, y) || x < xmin || x > xmax || y < ymin || y > ymax {
			return nil, false
		}
		out[i] = orb.Point{x, y}
	}
	return out, true
}

// WrapGeometry brings g inside c's x limits. Parts lying past a limit are
// cut along it and every piece is shifted by whole periods, so a geometry
// straddling the seam comes back as pieces on both sides. Parts with
// non-finite coordinates are kept as they are. Non-periodic systems return g
// unchanged.
func WrapGeometry(g orb.Geometry, c CRS) orb.Geometry {
	if !c.Periodic() || geometry.IsEmpty(g) {
		return g
	}
	if geometry.IsFinite(g) {
		return splitAtLimits(g, c)
	}

	var parts []orb.Geometry
	for _, part := range geometry.Parts(g) {
		if geometry.IsFinite(part) {
			part = splitAtLimits(part, c)
		}
		parts = append(parts, geometry.Parts(part)...)
	}
	return geometry.Collect(parts)
}
