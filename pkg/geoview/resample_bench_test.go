package geoview

import (
	"testing"

	"github.com/paulmach/orb"
)

// Benchmark viewport resampling with a warm cache against rebuilding the
// state on every call.

// BenchmarkResample_Cached benchmarks repeated resampling of one viewport.
func BenchmarkResample_Cached(b *testing.B) {
	el := createLargeElement(b, 10000)
	rs, _ := NewResampler(DefaultResamplerOptions())

	// Small viewport (typical zoom level - shows ~100 records)
	viewport := Extent{MinX: -71.1, MinY: 42.0, MaxX: -71.0, MaxY: 42.1}
	cfg := DefaultResampleConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = rs.Resample(el, &viewport, cfg)
	}
}

// BenchmarkResample_Cold benchmarks resampling with the state dropped
// before every call.
func BenchmarkResample_Cold(b *testing.B) {
	el := createLargeElement(b, 10000)
	rs, _ := NewResampler(DefaultResamplerOptions())

	viewport := Extent{MinX: -71.1, MinY: 42.0, MaxX: -71.0, MaxY: 42.1}
	cfg := DefaultResampleConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rs.Reset()
		_, _ = rs.Resample(el, &viewport, cfg)
	}
}

// BenchmarkResample_LargeViewport benchmarks a zoomed out viewport.
func BenchmarkResample_LargeViewport(b *testing.B) {
	el := createLargeElement(b, 10000)
	rs, _ := NewResampler(DefaultResamplerOptions())

	// Large viewport (zoomed out - shows ~1000 records)
	viewport := Extent{MinX: -72.0, MinY: 42.0, MaxX: -71.0, MaxY: 43.0}
	cfg := DefaultResampleConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = rs.Resample(el, &viewport, cfg)
	}
}

// BenchmarkBuildSpatialIndex benchmarks R-tree construction.
func BenchmarkBuildSpatialIndex(b *testing.B) {
	records := createLargeElement(b, 10000).Records()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = newSpatialIndex(records)
	}
}

// createLargeElement creates a synthetic polygon element for benchmarking.
func createLargeElement(b *testing.B, n int) *Element {
	b.Helper()
	records := make([]Record, n)

	// Distribute records across a 2° x 2° region
	lonMin, lonMax := -72.0, -70.0
	latMin, latMax := 42.0, 44.0

	for i := 0; i < n; i++ {
		// Deterministic grid for reproducibility
		lon := lonMin + float64(i%1000)/1000.0*(lonMax-lonMin)
		lat := latMin + float64(i/1000)/float64(n/1000)*(latMax-latMin)

		ring := orb.Ring{
			{lon, lat},
			{lon + 0.01, lat},
			{lon + 0.012, lat + 0.005},
			{lon + 0.01, lat + 0.01},
			{lon, lat + 0.01},
			{lon, lat}, // Close ring
		}
		records[i] = NewRecord(orb.Polygon{ring}, nil)
	}

	el, err := NewElement(KindPolygons, wgs, records)
	if err != nil {
		b.Fatalf("Failed to create element: %v", err)
	}
	return el
}
