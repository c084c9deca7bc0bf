package geoview

import (
	"errors"
	"math"
	"testing"

	"github.com/beetlebugorg/geoview/internal/geometry"
	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// failingCRS accepts every coordinate on the way in and rejects every
// coordinate on the way out.
type failingCRS struct{}

func (failingCRS) Name() string { return "Failing" }
func (failingCRS) Kind() crs.Kind { return crs.Kind("failing") }
func (failingCRS) XLimits() (float64, float64) { return -180, 180 }
func (failingCRS) YLimits() (float64, float64) { return -90, 90 }
func (failingCRS) Threshold() float64 { return 1 }
func (failingCRS) Periodic() bool { return false }
func (failingCRS) CentralLongitude() float64 { return 0 }
func (failingCRS) Boundary() orb.Ring {
	return orb.Ring{{-180, -90}, {180, -90}, {180, 90}, {-180, 90}, {-180, -90}}
}

func (failingCRS) ToGeodetic(x, y float64) (float64, float64, error) { return x, y, nil }

func (failingCRS) FromGeodetic(lon, lat float64) (float64, float64, error) {
	return 0, 0, crs.ErrOutOfDomain
}

func observedProjector(t *testing.T) (*Projector, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	opts := DefaultProjectOptions()
	opts.Logger = zap.New(core)
	p, err := NewProjector(opts)
	if err != nil {
		t.Fatalf("Failed to create projector: %v", err)
	}
	return p, logs
}

func mustElement(t *testing.T, kind ElementKind, c crs.CRS, records ...Record) *Element {
	t.Helper()
	el, err := NewElement(kind, c, records)
	if err != nil {
		t.Fatalf("Failed to create element: %v", err)
	}
	return el
}

func TestProjectSameCRS(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindPoints, wgs, NewRecord(orb.Point{1, 2}, nil))

	out, diag, err := p.Project(el, crs.NewPlateCarree(0))
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out != el {
		t.Error("Expected the same element for an equal CRS")
	}
	if diag.Dropped != 0 {
		t.Errorf("Expected no drops, got %d", diag.Dropped)
	}
}

func TestProjectPoints(t *testing.T) {
	p, logs := observedProjector(t)
	el := mustElement(t, KindPoints, wgs,
		NewRecord(orb.Point{0, 0}, map[string]any{"v": 1.0}),
		NewRecord(orb.MultiPoint{{10, 10}, {20, 20}}, map[string]any{"v": []float64{5, 6}}),
		NewRecord(orb.Point{0, 95}, map[string]any{"v": 2.0}),
	)

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("Expected 3 projected points, got %d", out.Len())
	}
	if diag.Dropped != 1 {
		t.Errorf("Expected 1 dropped point, got %d", diag.Dropped)
	}
	if out.ID() == el.ID() {
		t.Error("Expected a fresh element identity")
	}
	if out.CRS() != crs.Mercator {
		t.Errorf("Expected Mercator, got %s", out.CRS().Name())
	}

	recs := out.Records()
	if recs[0].ID() != el.Records()[0].ID() {
		t.Error("Expected point record to keep its identity")
	}
	if pt := recs[0].Geometry.(orb.Point); math.Abs(pt[0]) > 1e-6 || math.Abs(pt[1]) > 1e-6 {
		t.Errorf("Expected origin to map to origin, got %v", pt)
	}
	if v := recs[1].Attributes["v"]; v != 5.0 {
		t.Errorf("Expected first flattened value 5, got %v", v)
	}
	if v := recs[2].Attributes["v"]; v != 6.0 {
		t.Errorf("Expected second flattened value 6, got %v", v)
	}
	if pt := recs[2].Geometry.(orb.Point); pt[0] < 2e6 {
		t.Errorf("Expected Mercator x for 20 degrees, got %v", pt)
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no warnings, got %d", logs.Len())
	}
}

func TestProjectPointsBeyondMercatorLatitude(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindPoints, wgs,
		NewRecord(orb.Point{0, 80}, nil),
		NewRecord(orb.Point{0, 86}, nil),
		NewRecord(orb.Point{0, 89.9}, nil),
		NewRecord(orb.Point{0, 90}, nil),
	)

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("Expected only the 80 degree point to survive, got %d", out.Len())
	}
	if out.Records()[0].ID() != el.Records()[0].ID() {
		t.Error("Expected the surviving point to be the 80 degree one")
	}
	if pt := out.Records()[0].Geometry.(orb.Point); pt[1] >= crs.MercatorPole {
		t.Errorf("Expected y below the Mercator pole, got %v", pt[1])
	}
	if diag.Dropped != 3 {
		t.Errorf("Expected 3 dropped points, got %d", diag.Dropped)
	}
}

func TestProjectPointsWarnsWhenEmpty(t *testing.T) {
	p, logs := observedProjector(t)
	el := mustElement(t, KindVectorField, wgs, NewRecord(orb.Point{0, 95}, nil))

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Expected no error for empty result, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected empty element, got %d records", out.Len())
	}
	if diag.Dropped != 1 {
		t.Errorf("Expected 1 dropped point, got %d", diag.Dropped)
	}

	warnings := logs.FilterMessage("no geometries survived projection").All()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}
	fields := warnings[0].ContextMap()
	if fields["kind"] != "VectorField" {
		t.Errorf("Expected kind field VectorField, got %v", fields["kind"])
	}
	if fields["dst"] != "Mercator" {
		t.Errorf("Expected dst field Mercator, got %v", fields["dst"])
	}
}

func TestProjectContours(t *testing.T) {
	p, logs := observedProjector(t)
	line := NewRecord(orb.LineString{{-10, 0}, {10, 0}}, map[string]any{"level": 5.0})
	el := mustElement(t, KindContours, wgs, line)

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("Expected 1 contour, got %d", out.Len())
	}
	if diag.Dropped != 0 {
		t.Errorf("Expected no drops, got %d", diag.Dropped)
	}

	rec := out.Records()[0]
	if rec.ID() != line.ID() {
		t.Error("Expected single-piece contour to keep its identity")
	}
	if rec.Attributes["level"] != 5.0 {
		t.Errorf("Expected level 5, got %v", rec.Attributes["level"])
	}
	b := rec.Geometry.Bound()
	if b.Min[0] > -1.1e6 || b.Max[0] < 1.1e6 {
		t.Errorf("Expected line to span about +/-1.11e6 m, got %v", b)
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no warnings, got %d", logs.Len())
	}
}

func TestProjectContoursDropsNonFinite(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindContours, wgs, NewRecord(orb.MultiLineString{
		{{0, 0}, {1, 1}},
		{{math.NaN(), 0}, {1, 1}},
		{{2, 2}, {3, 3}},
	}, map[string]any{"level": 1.0}))

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 2 {
		t.Errorf("Expected 2 contour pieces, got %d", out.Len())
	}
	if diag.Dropped != 1 {
		t.Errorf("Expected 1 dropped part, got %d", diag.Dropped)
	}
	if len(diag.Causes) != 1 {
		t.Errorf("Expected 1 cause, got %v", diag.Causes)
	}

	recs := out.Records()
	if recs[0].ID() == recs[1].ID() {
		t.Error("Expected split contour pieces to have distinct identities")
	}
}

func TestProjectContoursOutsideDomain(t *testing.T) {
	p, logs := observedProjector(t)
	el := mustElement(t, KindContours, wgs,
		NewRecord(orb.LineString{{-10, 89}, {10, 89}}, map[string]any{"level": 1.0}))

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no contours above the Mercator limit, got %d", out.Len())
	}
	if diag.Dropped != 0 {
		t.Errorf("Expected out-of-domain parts not to count as failures, got %d", diag.Dropped)
	}
	if logs.FilterMessage("no geometries survived projection").Len() != 1 {
		t.Error("Expected empty-result warning")
	}
}

func TestProjectContoursAcrossSeam(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindContours, wgs,
		NewRecord(orb.LineString{{170, 0}, {190, 0}}, map[string]any{"level": 1.0}))

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if diag.Dropped != 0 {
		t.Errorf("Expected no drops, got %d", diag.Dropped)
	}
	if out.Len() != 2 {
		t.Fatalf("Expected a piece on each side of the seam, got %d", out.Len())
	}

	tenDegrees := crs.MercatorPole / 18
	east, west := false, false
	for _, rec := range out.Records() {
		b := rec.Geometry.Bound()
		if math.Abs(b.Max[0]-b.Min[0]-tenDegrees) > 1 {
			t.Errorf("Expected each piece to span 10 degrees, got %v", b)
		}
		east = east || math.Abs(b.Max[0]-crs.MercatorPole) < 1
		west = west || math.Abs(b.Min[0]+crs.MercatorPole) < 1
	}
	if !east || !west {
		t.Errorf("Expected pieces touching both x limits, got east=%v west=%v", east, west)
	}
}

func TestProjectContinuousPathAcrossSeam(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindPath, wgs,
		NewRecord(orb.LineString{{170, 0}, {190, 0}}, map[string]any{"speed": []float64{1, 2}}))

	out, _, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("Expected 1 path, got %d", out.Len())
	}
	ml, ok := out.Records()[0].Geometry.(orb.MultiLineString)
	if !ok {
		t.Fatalf("Expected the path to split at the seam, got %T", out.Records()[0].Geometry)
	}
	var length float64
	for _, ls := range ml {
		b := ls.Bound()
		length += b.Max[0] - b.Min[0]
	}
	if expected := crs.MercatorPole / 9; math.Abs(length-expected) > 1 {
		t.Errorf("Expected total x span %v, got %v", expected, length)
	}
}

func TestProjectContoursCountsFailures(t *testing.T) {
	p, _ := observedProjector(t)
	records := make([]Record, 0, MaxDiagnosticCauses+2)
	for i := 0; i < MaxDiagnosticCauses+2; i++ {
		x := float64(i)
		records = append(records, NewRecord(orb.LineString{{x, 0}, {x + 0.5, 1}}, map[string]any{"level": x}))
	}
	el := mustElement(t, KindContours, wgs, records...)

	out, diag, err := p.Project(el, failingCRS{})
	if err != nil {
		t.Fatalf("Expected contour failures to be best effort, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no contours, got %d", out.Len())
	}
	if diag.Dropped != MaxDiagnosticCauses+2 {
		t.Errorf("Expected %d drops, got %d", MaxDiagnosticCauses+2, diag.Dropped)
	}
	if len(diag.Causes) != MaxDiagnosticCauses {
		t.Errorf("Expected %d sampled causes, got %d", MaxDiagnosticCauses, len(diag.Causes))
	}
}

func TestProjectContinuousPath(t *testing.T) {
	p, _ := observedProjector(t)
	path := NewRecord(orb.LineString{{0, 0}, {10, 10}}, map[string]any{"speed": []float64{1, 2}})
	el := mustElement(t, KindPath, wgs, path)

	out, _, err := p.Project(el, crs.NewPlateCarree(90))
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("Expected 1 path, got %d", out.Len())
	}
	rec := out.Records()[0]
	if rec.ID() != path.ID() {
		t.Error("Expected continuous path to keep its identity")
	}
	ls := rec.Geometry.(orb.LineString)
	expected := orb.LineString{{-90, 0}, {-80, 10}}
	if len(ls) != 2 || ls[0] != expected[0] || ls[1] != expected[1] {
		t.Errorf("Expected %v, got %v", expected, ls)
	}
}

func TestProjectContinuousFailure(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindPath, wgs,
		NewRecord(orb.LineString{{0, 0}, {10, 10}}, map[string]any{"speed": []float64{1, 2}}))

	_, _, err := p.Project(el, failingCRS{})
	var projErr *ErrProjectionFailure
	if !errors.As(err, &projErr) {
		t.Fatalf("Expected *ErrProjectionFailure, got %v", err)
	}
	if projErr.Dst != "Failing" {
		t.Errorf("Expected dst Failing, got %q", projErr.Dst)
	}
	if !errors.Is(err, crs.ErrOutOfDomain) {
		t.Errorf("Expected cause to wrap ErrOutOfDomain, got %v", err)
	}
}

func TestProjectPolygons(t *testing.T) {
	p, _ := observedProjector(t)
	el := mustElement(t, KindPolygons, wgs,
		NewRecord(square(-5, -5, 10), map[string]any{"name": "box"}))

	out, diag, err := p.Project(el, crs.Mercator)
	if err != nil {
		t.Fatalf("Failed to project: %v", err)
	}
	if out.Len() != 1 || diag.Dropped != 0 {
		t.Fatalf("Expected 1 polygon and no drops, got %d and %d", out.Len(), diag.Dropped)
	}
	if _, ok := out.Records()[0].Geometry.(orb.Polygon); !ok {
		t.Errorf("Expected a polygon, got %T", out.Records()[0].Geometry)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind ElementKind
		geom orb.Geometry
	}{
		{"path", KindPath, orb.LineString{{-71.06, 42.36}, {-9.14, 38.72}, {139.69, 35.68}}},
		{"contour", KindContours, orb.LineString{{-30, -20}, {0, 10}, {30, -20}}},
		{"polygon", KindPolygons, square(-20, -10, 40)},
		{"polygon with hole", KindPolygons, orb.Polygon{
			{{0, 0}, {20, 0}, {20, 20}, {0, 20}, {0, 0}},
			{{5, 5}, {5, 15}, {15, 15}, {15, 5}, {5, 5}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := observedProjector(t)
			el := mustElement(t, tt.kind, wgs, NewRecord(tt.geom, map[string]any{"level": 1.0}))

			there, diag, err := p.Project(el, crs.Mercator)
			if err != nil || diag.Dropped != 0 {
				t.Fatalf("Failed to project to Mercator: %v (%d dropped)", err, diag.Dropped)
			}
			back, diag, err := p.Project(there, wgs)
			if err != nil || diag.Dropped != 0 {
				t.Fatalf("Failed to project back: %v (%d dropped)", err, diag.Dropped)
			}
			if back.Len() != 1 {
				t.Fatalf("Expected 1 record, got %d", back.Len())
			}

			got := back.Records()[0].Geometry
			if !boundsClose(got.Bound(), tt.geom.Bound(), 1e-6) {
				t.Errorf("Expected bound %v after round trip, got %v", tt.geom.Bound(), got.Bound())
			}
			if tt.kind == KindPolygons {
				want, have := geometry.Area(tt.geom), geometry.Area(got)
				if math.Abs(want-have) > 1e-6*want {
					t.Errorf("Expected area %v after round trip, got %v", want, have)
				}
			}
		})
	}
}

func boundsClose(a, b orb.Bound, tol float64) bool {
	return math.Abs(a.Min[0]-b.Min[0]) <= tol && math.Abs(a.Min[1]-b.Min[1]) <= tol &&
		math.Abs(a.Max[0]-b.Max[0]) <= tol && math.Abs(a.Max[1]-b.Max[1]) <= tol
}

func TestProjectNilArguments(t *testing.T) {
	p, _ := observedProjector(t)
	var cfgErr *ErrConfiguration

	if _, _, err := p.Project(nil, wgs); !errors.As(err, &cfgErr) {
		t.Errorf("Expected *ErrConfiguration for nil element, got %v", err)
	}
	el := mustElement(t, KindPoints, wgs)
	if _, _, err := p.Project(el, nil); !errors.As(err, &cfgErr) {
		t.Errorf("Expected *ErrConfiguration for nil CRS, got %v", err)
	}
}

func TestContinuous(t *testing.T) {
	tests := []struct {
		name     string
		attrs    map[string]any
		expected bool
	}{
		{"scalar", map[string]any{"v": 1.0}, false},
		{"constant slice", map[string]any{"v": []float64{2, 2, 2}}, false},
		{"varying floats", map[string]any{"v": []float64{1, 2}}, true},
		{"varying strings", map[string]any{"v": []string{"a", "b"}}, true},
		{"varying any", map[string]any{"v": []any{1, "x"}}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := continuous(tt.attrs); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestWithPoints(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 1}, {2, 2}}

	got, err := withPoints(ls, []orb.Point{{5, 5}, {6, 6}, {7, 7}})
	if err != nil {
		t.Fatalf("Failed to replace vertices: %v", err)
	}
	if got.(orb.LineString)[2] != (orb.Point{7, 7}) {
		t.Errorf("Expected last vertex (7, 7), got %v", got)
	}

	for _, pts := range [][]orb.Point{{{5, 5}}, {{5, 5}, {6, 6}, {7, 7}, {8, 8}}} {
		if _, err := withPoints(ls, pts); err == nil {
			t.Errorf("Expected error for %d points on 3 vertices", len(pts))
		}
	}
}
