// Package geometry adapts the orb geometry model to the operations the
// projector and resampler need: kind classification, emptiness and
// finiteness checks, clipping against arbitrary boundary rings, erosion,
// densification and Douglas-Peucker simplification.
package geometry

import (
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// Kind is the closed set of geometry kinds handled by this module.
type Kind int

const (
	// KindPoint is a single coordinate.
	KindPoint Kind = iota

	// KindMultiPoint is an ordered set of points.
	KindMultiPoint

	// KindLineString is an open or closed path.
	KindLineString

	// KindMultiLineString is an ordered set of paths.
	KindMultiLineString

	// KindPolygon is an exterior ring with zero or more holes.
	KindPolygon

	// KindMultiPolygon is an ordered set of polygons.
	KindMultiPolygon
)

// String returns the string representation of the geometry kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindMultiPoint:
		return "MultiPoint"
	case KindLineString:
		return "LineString"
	case KindMultiLineString:
		return "MultiLineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// Puntal reports whether the kind is a point kind.
func (k Kind) Puntal() bool { return k == KindPoint || k == KindMultiPoint }

// Lineal reports whether the kind is a line kind.
func (k Kind) Lineal() bool { return k == KindLineString || k == KindMultiLineString }

// Polygonal reports whether the kind is an area kind.
func (k Kind) Polygonal() bool { return k == KindPolygon || k == KindMultiPolygon }

// KindOf classifies g. Geometries outside the closed Kind set (collections,
// bare rings, bounds, nil) are rejected with ErrUnsupportedGeometry.
func KindOf(g orb.Geometry) (Kind, error) {
	switch g.(type) {
	case orb.Point:
		return KindPoint, nil
	case orb.MultiPoint:
		return KindMultiPoint, nil
	case orb.LineString:
		return KindLineString, nil
	case orb.MultiLineString:
		return KindMultiLineString, nil
	case orb.Polygon:
		return KindPolygon, nil
	case orb.MultiPolygon:
		return KindMultiPolygon, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
}

// ErrUnsupportedGeometry is returned for geometry types outside Kind.
var ErrUnsupportedGeometry = errors.New("unsupported geometry type")

// ErrClip is returned when an intersection cannot be computed cleanly.
var ErrClip = errors.New("clip failed")
