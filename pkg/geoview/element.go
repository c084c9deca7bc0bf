package geoview

import (
	"fmt"
	"math"
	"sort"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ElementKind is the closed set of element kinds.
type ElementKind int

const (
	// KindPoints holds Point and MultiPoint records.
	KindPoints ElementKind = iota

	// KindVectorField holds point-located glyphs such as arrows or barbs.
	KindVectorField

	// KindPath holds LineString and MultiLineString records.
	KindPath

	// KindContours holds iso-lines, one constant level per record.
	KindContours

	// KindPolygons holds Polygon and MultiPolygon records.
	KindPolygons

	// KindImage holds a single gridded raster.
	KindImage
)

// String returns the string representation of the element kind.
func (k ElementKind) String() string {
	switch k {
	case KindPoints:
		return "Points"
	case KindVectorField:
		return "VectorField"
	case KindPath:
		return "Path"
	case KindContours:
		return "Contours"
	case KindPolygons:
		return "Polygons"
	case KindImage:
		return "Image"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// allows reports whether records of geometry kind g may live in k.
func (k ElementKind) allows(g geometry.Kind) bool {
	switch k {
	case KindPoints, KindVectorField:
		return g.Puntal()
	case KindPath, KindContours:
		return g.Lineal()
	case KindPolygons:
		return g.Polygonal()
	}
	return false
}

// Record is one geometry with its attributes.
//
// Attribute values are scalars or slices ([]float64, []int, []string, []any).
// A slice whose length matches the vertex count carries per-vertex values.
type Record struct {
	id         uuid.UUID
	Geometry   orb.Geometry
	Attributes map[string]any
}

// NewRecord returns a record with a fresh identity.
func NewRecord(g orb.Geometry, attrs map[string]any) Record {
	return Record{id: uuid.New(), Geometry: g, Attributes: attrs}
}

// ID returns the record identity. Copies of a record share its identity.
func (r Record) ID() uuid.UUID { return r.id }

// Raster is a regular grid of values.
//
// Values[row][col] with row 0 at the lowest y. Pixel centers are at
// Bounds.Min + (index + 0.5) * pixel size. NaN marks no-data.
type Raster struct {
	Values [][]float64
	Bounds orb.Bound
}

// Width returns the number of columns.
func (r *Raster) Width() int {
	if r == nil || len(r.Values) == 0 {
		return 0
	}
	return len(r.Values[0])
}

// Height returns the number of rows.
func (r *Raster) Height() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// Empty reports whether the raster holds no pixels.
func (r *Raster) Empty() bool { return r.Width() == 0 || r.Height() == 0 }

// PixelSize returns the pixel width and height.
func (r *Raster) PixelSize() (dx, dy float64) {
	if r.Empty() {
		return math.NaN(), math.NaN()
	}
	dx = (r.Bounds.Max[0] - r.Bounds.Min[0]) / float64(r.Width())
	dy = (r.Bounds.Max[1] - r.Bounds.Min[1]) / float64(r.Height())
	return dx, dy
}

// Center returns the coordinate of the center of pixel (row, col).
func (r *Raster) Center(row, col int) orb.Point {
	dx, dy := r.PixelSize()
	return orb.Point{
		r.Bounds.Min[0] + (float64(col)+0.5)*dx,
		r.Bounds.Min[1] + (float64(row)+0.5)*dy,
	}
}

func newGrid(rows, cols int) [][]float64 {
	values := make([][]float64, rows)
	for i := range values {
		values[i] = make([]float64, cols)
	}
	return values
}

// Element is an immutable, CRS-tagged collection of records or a raster.
//
// Elements are created with NewElement or NewImage and never modified;
// every operation returns a new element with a fresh identity.
type Element struct {
	id      uuid.UUID
	kind    ElementKind
	crs     crs.CRS
	records []Record
	raster  *Raster
}

// NewElement validates and wraps records as an element of the given kind.
//
// Every record geometry must be allowed for kind and all records must share
// the same attribute key set. Records without an identity, or repeating the
// identity of an earlier record, are given a fresh one.
//
// Example:
//
//	el, err := geoview.NewElement(geoview.KindPolygons, crs.NewPlateCarree(0),
//	    []geoview.Record{
//	        geoview.NewRecord(poly, map[string]any{"name": "harbour"}),
//	    })
func NewElement(kind ElementKind, c crs.CRS, records []Record) (*Element, error) {
	if c == nil {
		return nil, &ErrConfiguration{Field: "crs", Reason: "element requires a CRS"}
	}
	if kind == KindImage {
		return nil, &ErrConfiguration{Field: "kind", Reason: "use NewImage for raster elements"}
	}
	if kind < KindPoints || kind > KindImage {
		return nil, &ErrUnsupportedGeometry{Kind: kind.String()}
	}

	var schema []string
	out := make([]Record, len(records))
	seen := make(map[uuid.UUID]struct{}, len(records))
	for i, rec := range records {
		gk, err := geometry.KindOf(rec.Geometry)
		if err != nil {
			return nil, &ErrUnsupportedGeometry{Kind: fmt.Sprintf("%T", rec.Geometry)}
		}
		if !kind.allows(gk) {
			return nil, &ErrConfiguration{
				Field:  fmt.Sprintf("records[%d].geometry", i),
				Reason: fmt.Sprintf("%s geometry in %s element", gk, kind),
			}
		}

		keys := attributeKeys(rec.Attributes)
		if i == 0 {
			schema = keys
		} else if !sameKeys(schema, keys) {
			return nil, &ErrConfiguration{
				Field:  fmt.Sprintf("records[%d].attributes", i),
				Reason: fmt.Sprintf("attribute keys %v do not match %v", keys, schema),
			}
		}

		if _, dup := seen[rec.id]; dup || rec.id == uuid.Nil {
			rec.id = uuid.New()
		}
		seen[rec.id] = struct{}{}
		out[i] = rec
	}
	return newElement(kind, c, out), nil
}

// NewImage wraps a raster as an image element.
func NewImage(c crs.CRS, raster *Raster) (*Element, error) {
	if c == nil {
		return nil, &ErrConfiguration{Field: "crs", Reason: "element requires a CRS"}
	}
	if raster == nil {
		return nil, &ErrConfiguration{Field: "raster", Reason: "raster is nil"}
	}
	width := raster.Width()
	for i, row := range raster.Values {
		if len(row) != width {
			return nil, &ErrConfiguration{
				Field:  fmt.Sprintf("raster.values[%d]", i),
				Reason: fmt.Sprintf("row has %d columns, want %d", len(row), width),
			}
		}
	}
	if !raster.Empty() && (raster.Bounds.Max[0] <= raster.Bounds.Min[0] || raster.Bounds.Max[1] <= raster.Bounds.Min[1]) {
		return nil, &ErrConfiguration{Field: "raster.bounds", Reason: "bounds must have positive width and height"}
	}
	return newImage(c, raster), nil
}

func newElement(kind ElementKind, c crs.CRS, records []Record) *Element {
	return &Element{id: uuid.New(), kind: kind, crs: c, records: records}
}

func newImage(c crs.CRS, raster *Raster) *Element {
	return &Element{id: uuid.New(), kind: KindImage, crs: c, raster: raster}
}

// ID returns the element identity.
func (e *Element) ID() uuid.UUID { return e.id }

// Kind returns the element kind.
func (e *Element) Kind() ElementKind { return e.kind }

// CRS returns the coordinate reference system of the element.
func (e *Element) CRS() crs.CRS { return e.crs }

// Len returns the number of records.
func (e *Element) Len() int { return len(e.records) }

// Records returns a copy of the record slice. Geometries and attribute maps
// are shared and must not be modified.
func (e *Element) Records() []Record {
	return append([]Record(nil), e.records...)
}

// Raster returns the raster of an image element, or nil.
func (e *Element) Raster() *Raster { return e.raster }

// DataExtent returns the bounding box of all record geometries, or the
// raster bounds for images. Elements without data return EmptyExtent.
func (e *Element) DataExtent() Extent {
	if e.kind == KindImage {
		if e.raster == nil || e.raster.Empty() {
			return EmptyExtent()
		}
		return ExtentFromBound(e.raster.Bounds)
	}

	ext := EmptyExtent()
	for _, rec := range e.records {
		if geometry.IsEmpty(rec.Geometry) {
			continue
		}
		ext = ext.Union(ExtentFromBound(rec.Geometry.Bound()))
	}
	return ext
}

func attributeKeys(attrs map[string]any) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
