package geoview

import (
	"errors"
	"math"
	"testing"

	"github.com/beetlebugorg/geoview/pkg/crs"
)

func extentsClose(a, b Extent, tol float64) bool {
	return math.Abs(a.MinX-b.MinX) <= tol &&
		math.Abs(a.MinY-b.MinY) <= tol &&
		math.Abs(a.MaxX-b.MaxX) <= tol &&
		math.Abs(a.MaxY-b.MaxY) <= tol
}

func TestProjectExtentIdentity(t *testing.T) {
	in := Extent{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	out, err := ProjectExtent(in, wgs, wgs)
	if err != nil {
		t.Fatalf("Failed to project extent: %v", err)
	}
	if !extentsClose(in, out, 1e-5) {
		t.Errorf("Expected %v, got %v", in, out)
	}
}

func TestProjectExtentWrap(t *testing.T) {
	shifted, err := ProjectExtent(Extent{MinX: 350, MinY: -10, MaxX: 370, MaxY: 10}, wgs, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project shifted extent: %v", err)
	}
	direct, err := ProjectExtent(Extent{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}, wgs, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project extent: %v", err)
	}
	if shifted.IsEmpty() || direct.IsEmpty() {
		t.Fatalf("Expected non-empty extents, got %v and %v", shifted, direct)
	}
	if !extentsClose(shifted, direct, 1e-3) {
		t.Errorf("Expected wrapped extent %v to equal %v", shifted, direct)
	}
}

func TestProjectExtentOutsideDomain(t *testing.T) {
	out, err := ProjectExtent(Extent{MinX: -10, MinY: 86, MaxX: 10, MaxY: 89}, wgs, crs.Mercator)
	if err != nil {
		t.Fatalf("Expected no error for degenerate result, got %v", err)
	}
	if !out.IsEmpty() {
		t.Errorf("Expected empty extent, got %v", out)
	}
	for _, v := range []float64{out.MinX, out.MinY, out.MaxX, out.MaxY} {
		if !math.IsNaN(v) {
			t.Errorf("Expected NaN edges, got %v", out)
			break
		}
	}
}

func TestProjectExtentRoundTrip(t *testing.T) {
	in := Extent{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	merc, err := ProjectExtent(in, wgs, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project to Mercator: %v", err)
	}
	if merc.MaxX < 1e6 || merc.MinX > -1e6 {
		t.Errorf("Expected Mercator metres, got %v", merc)
	}

	back, err := ProjectExtent(merc, crs.Mercator, wgs)
	if err != nil {
		t.Fatalf("Failed to project back: %v", err)
	}
	if !extentsClose(in, back, 1e-3) {
		t.Errorf("Expected round trip %v, got %v", in, back)
	}
}

func TestProjectExtentDegenerate(t *testing.T) {
	tests := []struct {
		name string
		ext  Extent
	}{
		{"empty", EmptyExtent()},
		{"inverted", Extent{MinX: 10, MinY: 0, MaxX: -10, MaxY: 5}},
		{"zero width", Extent{MinX: 5, MinY: 0, MaxX: 5, MaxY: 5}},
		{"beyond latitude", Extent{MinX: 0, MinY: 95, MaxX: 10, MaxY: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ProjectExtent(tt.ext, wgs, crs.Mercator)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !out.IsEmpty() {
				t.Errorf("Expected empty extent, got %v", out)
			}
		})
	}
}

func TestProjectExtentMissingCRS(t *testing.T) {
	_, err := ProjectExtent(Extent{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, nil, wgs)
	var cfgErr *ErrConfiguration
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected *ErrConfiguration, got %v", err)
	}
}

func TestNewProjectorValidation(t *testing.T) {
	opts := DefaultProjectOptions()
	opts.Epsilon = -1
	if _, err := NewProjector(opts); err == nil {
		t.Error("Expected error for negative epsilon")
	}

	opts = DefaultProjectOptions()
	opts.Raster.Mode = RasterMode(7)
	if _, err := NewProjector(opts); err == nil {
		t.Error("Expected error for unknown raster mode")
	}
}

func TestBoundaryInSourceCached(t *testing.T) {
	p, err := NewProjector(DefaultProjectOptions())
	if err != nil {
		t.Fatalf("Failed to create projector: %v", err)
	}

	first := p.boundaryInSource(wgs, crs.Mercator)
	if first == nil {
		t.Fatal("Expected Mercator domain in PlateCarree coordinates")
	}
	b := first.Bound()
	if b.Max[1] > 86 || b.Max[1] < 84 {
		t.Errorf("Expected northern domain edge near 85.05, got %v", b.Max[1])
	}

	p.boundaryInSource(wgs, crs.Mercator)
	if len(p.boundaries) != 1 {
		t.Errorf("Expected 1 cached boundary, got %d", len(p.boundaries))
	}
}
