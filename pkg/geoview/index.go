package geoview

import (
	"math"
	"sort"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent pads zero-size bounds, which rtreego rejects.
const minExtent = 1e-9

// spatialIndex answers bounding-box queries over a fixed list of records.
//
// The R-tree is bulk-loaded once and never modified. Query results are
// positions in the record list, in ascending order.
type spatialIndex struct {
	rtree *rtreego.Rtree
	size  int
}

// indexEntry is a record position with its bounding rectangle.
type indexEntry struct {
	pos  int
	rect rtreego.Rect
}

// Bounds method for rtreego.Spatial interface.
func (e *indexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// newSpatialIndex builds an index over the bounds of records. Records with
// empty or non-finite geometries are not indexed.
func newSpatialIndex(records []Record) *spatialIndex {
	items := make([]rtreego.Spatial, 0, len(records))
	for i, rec := range records {
		if geometry.IsEmpty(rec.Geometry) || !geometry.IsFinite(rec.Geometry) {
			continue
		}
		rect, ok := boundRect(rec.Geometry.Bound())
		if !ok {
			continue
		}
		items = append(items, &indexEntry{pos: i, rect: rect})
	}

	// Create R-tree (2D, min=25 children, max=50 children)
	return &spatialIndex{
		rtree: rtreego.NewTree(2, 25, 50, items...),
		size:  len(items),
	}
}

// Query returns the positions of records whose bounds intersect b.
func (idx *spatialIndex) Query(b orb.Bound) []int {
	if idx == nil || idx.size == 0 {
		return nil
	}
	rect, ok := boundRect(b)
	if !ok {
		return nil
	}

	hits := idx.rtree.SearchIntersect(rect)
	positions := make([]int, len(hits))
	for i, h := range hits {
		positions[i] = h.(*indexEntry).pos
	}
	sort.Ints(positions)
	return positions
}

// Len returns the number of indexed records.
func (idx *spatialIndex) Len() int { return idx.size }

func boundRect(b orb.Bound) (rtreego.Rect, bool) {
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) || w < 0 || h < 0 {
		return rtreego.Rect{}, false
	}

	// Pad degenerate sides and centre the padding on the original edge
	minX, minY := b.Min[0], b.Min[1]
	if w < minExtent {
		minX -= minExtent / 2
		w = minExtent
	}
	if h < minExtent {
		minY -= minExtent / 2
		h = minExtent
	}

	rect, err := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	if err != nil {
		return rtreego.Rect{}, false
	}
	return rect, true
}
