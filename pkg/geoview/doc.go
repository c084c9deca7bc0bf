// Package geoview reprojects geographic geometry between coordinate
// reference systems and resamples large geometry collections for
// interactive viewports.
//
// This package is designed for map plotting applications. It takes care of
// the parts of drawing geographic data that depend on the CRS and on the
// current view: wrap-around at the antimeridian, projection domain edges,
// and level-of-detail while panning and zooming. Rendering and styling are
// left to the caller.
//
// # Basic Usage
//
//	polys, err := geoview.NewElement(geoview.KindPolygons, crs.NewPlateCarree(0),
//	    []geoview.Record{
//	        geoview.NewRecord(coast, map[string]any{"name": "mainland"}),
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, _ := geoview.NewProjector(geoview.DefaultProjectOptions())
//	merc, diag, err := p.Project(polys, crs.Mercator)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d records, %d dropped\n", merc.Len(), diag.Dropped)
//
// # Extents
//
// ProjectExtent converts a plot extent between systems. The box is clamped
// to the source domain, resolved across the wrap seam and intersected with
// the destination domain before projection:
//
//	ext, _ := geoview.ProjectExtent(
//	    geoview.Extent{MinX: 350, MinY: -10, MaxX: 370, MaxY: 10},
//	    crs.NewPlateCarree(0), crs.Mercator)
//
// Regions with no valid image return EmptyExtent, never an error.
//
// # Viewport Resampling
//
// A Resampler keeps a spatial index and a zoom-bucketed simplification
// cache per source element:
//
//	rs, _ := geoview.NewResampler(geoview.DefaultResamplerOptions())
//	viewport := geoview.Extent{MinX: -71.5, MinY: 42.0, MaxX: -71.0, MaxY: 42.5}
//	visible, err := rs.Resample(polys, &viewport, geoview.DefaultResampleConfig())
//
// Records too small for the viewport are culled, the rest are simplified
// with Douglas-Peucker at a tolerance proportional to the viewport size.
//
// # Images
//
// Image elements are warped pixel by pixel. RasterAccurate works for any
// pair of systems; RasterFast is quicker for periodic sources but
// inaccurate near the poles:
//
//	opts := geoview.DefaultProjectOptions()
//	opts.Raster.Mode = geoview.RasterFast
//	p, _ := geoview.NewProjector(opts)
//
// # Errors
//
// Invalid input is reported as *ErrConfiguration, unsupported kinds as
// *ErrUnsupportedGeometry and transform failures as *ErrProjectionFailure.
// Empty results are not errors. Best-effort drops during contour
// projection are counted in Diagnostics.
package geoview
