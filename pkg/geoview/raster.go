package geoview

import (
	"math"
	"sort"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// rasterSample is a source pixel center after forward mapping into the
// destination system.
type rasterSample struct {
	at    rtreego.Point
	value float64
}

// Bounds method for rtreego.Spatial interface.
func (s *rasterSample) Bounds() rtreego.Rect {
	return s.at.ToRect(1e-9)
}

func (p *Projector) projectImage(el *Element, dst crs.CRS) (*Element, error) {
	src := el.CRS()
	r := el.Raster()
	if r == nil || r.Empty() {
		return newImage(dst, emptyRaster()), nil
	}

	var (
		out *Raster
		err error
	)
	switch p.opts.Raster.Mode {
	case RasterAccurate:
		out, err = p.warpAccurate(r, src, dst)
	case RasterFast:
		out, err = p.warpFast(r, src, dst)
	default:
		return nil, &ErrConfiguration{Field: "Raster.Mode", Reason: "unknown raster mode"}
	}
	if err != nil {
		return nil, err
	}
	return newImage(dst, out), nil
}

func emptyRaster() *Raster {
	return &Raster{Bounds: EmptyExtent().Bound()}
}

func (p *Projector) outputSize(r *Raster) (int, int) {
	w, h := p.opts.Raster.Width, p.opts.Raster.Height
	if w == 0 {
		w = r.Width()
	}
	if h == 0 {
		h = r.Height()
	}
	return w, h
}

// warpAccurate forward-maps every source pixel center, indexes the images
// in an R-tree and gives each destination pixel its nearest sample.
// Destination pixels whose inverse image falls outside the source raster
// are NaN.
func (p *Projector) warpAccurate(r *Raster, src, dst crs.CRS) (*Raster, error) {
	ext, err := p.ProjectExtent(ExtentFromBound(r.Bounds), src, dst)
	if err != nil {
		return nil, err
	}
	if ext.IsEmpty() {
		return emptyRaster(), nil
	}

	centers := make([]orb.Point, 0, r.Width()*r.Height())
	values := make([]float64, 0, cap(centers))
	for row := 0; row < r.Height(); row++ {
		for col := 0; col < r.Width(); col++ {
			centers = append(centers, r.Center(row, col))
			values = append(values, r.Values[row][col])
		}
	}
	forward := crs.TransformPoints(src, dst, centers)

	dstLo, dstHi := dst.XLimits()
	items := make([]rtreego.Spatial, 0, len(forward))
	for i, pt := range forward {
		if !geometry.PointIsFinite(pt) {
			continue
		}
		x := pt[0]
		if dst.Periodic() {
			x = crs.Wrap(x, dstLo, dstHi-dstLo)
		}
		items = append(items, &rasterSample{at: rtreego.Point{x, pt[1]}, value: values[i]})
	}

	w, h := p.outputSize(r)
	out := &Raster{Values: newGrid(h, w), Bounds: ext.Bound()}
	targets := make([]orb.Point, 0, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			targets = append(targets, out.Center(row, col))
		}
	}
	inverse := crs.TransformPoints(dst, src, targets)

	var tree *rtreego.Rtree
	if len(items) > 0 {
		tree = rtreego.NewTree(2, 25, 50, items...)
	}
	for i, t := range targets {
		row, col := i/w, i%w
		if tree == nil || !insideRaster(inverse[i], r.Bounds, src) {
			out.Values[row][col] = math.NaN()
			continue
		}
		nearest := tree.NearestNeighbor(rtreego.Point{t[0], t[1]})
		out.Values[row][col] = nearest.(*rasterSample).value
	}
	return out, nil
}

// insideRaster reports whether pt, wrapped by src's period when periodic,
// lies inside bounds.
func insideRaster(pt orb.Point, bounds orb.Bound, src crs.CRS) bool {
	if !geometry.PointIsFinite(pt) {
		return false
	}
	x := pt[0]
	if period := crs.Period(src); period > 0 {
		x = crs.Wrap(x, bounds.Min[0], period)
	}
	return x >= bounds.Min[0] && x <= bounds.Max[0] &&
		pt[1] >= bounds.Min[1] && pt[1] <= bounds.Max[1]
}

// stripe is a run of source columns that stays on one side of the wrap seam.
type stripe struct {
	first, last int // source columns [first, last)
	srcMinX     float64
	dst         Extent
	width       int // output columns
}

// warpFast splits the raster at wrap discontinuities, projects each stripe's
// extent independently and fills a destination grid per stripe by inverse
// mapping and nearest-neighbour lookup.
func (p *Projector) warpFast(r *Raster, src, dst crs.CRS) (*Raster, error) {
	if !src.Periodic() {
		return nil, &ErrConfiguration{
			Field:  "Raster.Mode",
			Reason: "fast raster projection requires a periodic source CRS, got " + src.Name(),
		}
	}
	xlo, xhi := src.XLimits()
	period := xhi - xlo
	dx, dy := r.PixelSize()

	var stripes []*stripe
	start := 0
	prev := math.Inf(-1)
	for col := 0; col < r.Width(); col++ {
		x := crs.Wrap(r.Center(0, col)[0], xlo, period)
		if x < prev {
			stripes = append(stripes, &stripe{first: start, last: col})
			start = col
		}
		prev = x
	}
	stripes = append(stripes, &stripe{first: start, last: r.Width()})

	kept := stripes[:0]
	total := 0.0
	for _, s := range stripes {
		s.srcMinX = r.Bounds.Min[0] + float64(s.first)*dx
		srcExt := Extent{
			MinX: s.srcMinX,
			MinY: r.Bounds.Min[1],
			MaxX: r.Bounds.Min[0] + float64(s.last)*dx,
			MaxY: r.Bounds.Max[1],
		}
		ext, err := p.ProjectExtent(srcExt, src, dst)
		if err != nil {
			return nil, err
		}
		if ext.IsEmpty() || ext.Width() <= 0 {
			continue
		}
		s.dst = ext
		total += ext.Width()
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return emptyRaster(), nil
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].dst.MinX < kept[j].dst.MinX })

	w, h := p.outputSize(r)
	bounds := kept[0].dst
	cum := 0.0
	assigned := 0
	for _, s := range kept {
		cum += s.dst.Width()
		end := int(math.Round(cum / total * float64(w)))
		s.width = end - assigned
		assigned = end
		bounds = bounds.Union(s.dst)
	}

	out := &Raster{Values: newGrid(h, w), Bounds: bounds.Bound()}
	rowHeight := bounds.Height() / float64(h)
	col0 := 0
	for _, s := range kept {
		if s.width <= 0 {
			continue
		}
		colWidth := s.dst.Width() / float64(s.width)
		targets := make([]orb.Point, 0, s.width*h)
		for row := 0; row < h; row++ {
			y := bounds.MinY + (float64(row)+0.5)*rowHeight
			for c := 0; c < s.width; c++ {
				targets = append(targets, orb.Point{s.dst.MinX + (float64(c)+0.5)*colWidth, y})
			}
		}
		inverse := crs.TransformPoints(dst, src, targets)

		for i, pt := range inverse {
			row, c := i/s.width, i%s.width
			if !geometry.PointIsFinite(pt) {
				out.Values[row][col0+c] = math.NaN()
				continue
			}
			sx := crs.Wrap(pt[0], s.srcMinX, period)
			ci := clampIndex(int(math.Floor((sx-r.Bounds.Min[0])/dx)), r.Width())
			ri := clampIndex(int(math.Floor((pt[1]-r.Bounds.Min[1])/dy)), r.Height())
			out.Values[row][col0+c] = r.Values[ri][ci]
		}
		col0 += s.width
	}
	return out, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
