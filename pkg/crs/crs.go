// Package crs defines the coordinate reference systems used by geoview and
// the primitives that move coordinates and geometries between them.
//
// A CRS knows its valid domain in its own coordinates (Boundary, XLimits,
// YLimits), whether its x axis wraps (Periodic), and a numerical Threshold
// used both as the densification step when projecting and as the erosion
// distance that keeps samples away from the exact domain edge.
//
// Three systems are provided:
//
//   - PlateCarree: equirectangular longitude/latitude with an optional
//     central longitude.
//   - Mercator: spherical (web) Mercator in metres.
//   - Proj4: any PROJ.4 definition understood by github.com/ctessum/geom/proj.
//
// Example:
//
//	src := crs.NewPlateCarree(0)
//	dst := crs.Mercator
//	pts := crs.TransformPoints(src, dst, []orb.Point{{-71.06, 42.36}})
package crs

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// Kind identifies the family of a CRS independently of its parameters.
type Kind string

const (
	// KindPlateCarree is the equirectangular family.
	KindPlateCarree Kind = "PlateCarree"

	// KindMercator is the spherical Mercator family.
	KindMercator Kind = "Mercator"

	// KindProj4 covers systems defined by a PROJ.4 string.
	KindProj4 Kind = "Proj4"
)

// CRS is an immutable coordinate reference system.
//
// Implementations must be safe for concurrent use. Two systems are
// considered equal when their names are equal, so Name must encode every
// parameter that changes the coordinates.
type CRS interface {
	// Name uniquely identifies the system and its parameters.
	Name() string

	// Kind returns the system family.
	Kind() Kind

	// XLimits returns the valid x range in native units.
	XLimits() (min, max float64)

	// YLimits returns the valid y range in native units.
	YLimits() (min, max float64)

	// Boundary returns the closed ring enclosing the valid domain.
	Boundary() orb.Ring

	// Threshold is the numerical tolerance in native units.
	Threshold() float64

	// Periodic reports whether x wraps with period XLimits width.
	Periodic() bool

	// CentralLongitude is the geodetic longitude mapped to x = 0.
	CentralLongitude() float64

	// ToGeodetic converts native coordinates to WGS84 longitude/latitude
	// in degrees.
	ToGeodetic(x, y float64) (lon, lat float64, err error)

	// FromGeodetic converts WGS84 longitude/latitude in degrees to native
	// coordinates.
	FromGeodetic(lon, lat float64) (x, y float64, err error)
}

// ErrOutOfDomain is returned when a coordinate lies outside the domain a
// system can represent.
var ErrOutOfDomain = errors.New("coordinate outside projection domain")

// Equal reports whether a and b describe the same system.
func Equal(a, b CRS) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name()
}

// Period returns the x period of c, or zero when c does not wrap.
func Period(c CRS) float64 {
	if !c.Periodic() {
		return 0
	}
	lo, hi := c.XLimits()
	return hi - lo
}

// Wrap maps x into [lo, lo+period).
func Wrap(x, lo, period float64) float64 {
	if period <= 0 {
		return x
	}
	w := math.Mod(x-lo, period)
	if w < 0 {
		w += period
	}
	return lo + w
}

func boundsRing(xmin, ymin, xmax, ymax float64) orb.Ring {
	return orb.Ring{
		{xmin, ymin},
		{xmax, ymin},
		{xmax, ymax},
		{xmin, ymax},
		{xmin, ymin},
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
