package geoview

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Extent is an axis-aligned box in the coordinates of some CRS.
//
// The empty extent has all four values set to NaN and is what every
// operation returns when no valid region exists.
type Extent struct {
	MinX float64 // Western edge
	MinY float64 // Southern edge
	MaxX float64 // Eastern edge
	MaxY float64 // Northern edge
}

// EmptyExtent returns the all-NaN extent.
func EmptyExtent() Extent {
	nan := math.NaN()
	return Extent{MinX: nan, MinY: nan, MaxX: nan, MaxY: nan}
}

// ExtentFromBound converts an orb bound to an extent.
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// IsEmpty reports whether e has a NaN edge or is inverted.
func (e Extent) IsEmpty() bool {
	if math.IsNaN(e.MinX) || math.IsNaN(e.MinY) || math.IsNaN(e.MaxX) || math.IsNaN(e.MaxY) {
		return true
	}
	return e.MinX > e.MaxX || e.MinY > e.MaxY
}

// Bound returns e as an orb bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.MinX, e.MinY}, Max: orb.Point{e.MaxX, e.MaxY}}
}

// Polygon returns the closed rectangle tracing e.
func (e Extent) Polygon() orb.Polygon {
	return orb.Polygon{{
		{e.MinX, e.MinY},
		{e.MaxX, e.MinY},
		{e.MaxX, e.MaxY},
		{e.MinX, e.MaxY},
		{e.MinX, e.MinY},
	}}
}

// Width returns the x span, or NaN for the empty extent.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns the y span, or NaN for the empty extent.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Area returns the area of e; zero for an empty or inverted extent.
func (e Extent) Area() float64 {
	if e.IsEmpty() {
		return 0
	}
	return e.Width() * e.Height()
}

// Contains returns true if the point (x, y) is within the extent.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.MinX && x <= e.MaxX &&
		y >= e.MinY && y <= e.MaxY
}

// Intersects returns true if the given extent intersects with this extent.
func (e Extent) Intersects(other Extent) bool {
	if e.IsEmpty() || other.IsEmpty() {
		return false
	}
	return !(other.MaxX < e.MinX ||
		other.MinX > e.MaxX ||
		other.MaxY < e.MinY ||
		other.MinY > e.MaxY)
}

// Expand returns a new Extent grown by margin in all directions.
func (e Extent) Expand(margin float64) Extent {
	return Extent{
		MinX: e.MinX - margin,
		MinY: e.MinY - margin,
		MaxX: e.MaxX + margin,
		MaxY: e.MaxY + margin,
	}
}

// Union returns the smallest extent covering e and other. Empty extents are
// ignored.
func (e Extent) Union(other Extent) Extent {
	switch {
	case e.IsEmpty():
		return other
	case other.IsEmpty():
		return e
	}
	return Extent{
		MinX: math.Min(e.MinX, other.MinX),
		MinY: math.Min(e.MinY, other.MinY),
		MaxX: math.Max(e.MaxX, other.MaxX),
		MaxY: math.Max(e.MaxY, other.MaxY),
	}
}

func (e Extent) String() string {
	if e.IsEmpty() {
		return "Extent(empty)"
	}
	return fmt.Sprintf("Extent(%g, %g, %g, %g)", e.MinX, e.MinY, e.MaxX, e.MaxY)
}
