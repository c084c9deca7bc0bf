package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/beetlebugorg/geoview/pkg/geoview"
	"github.com/paulmach/orb"
)

func main() {
	// Build a polygon layer in lon/lat
	harbour := orb.Polygon{{
		{-71.10, 42.30}, {-71.00, 42.30}, {-71.00, 42.40}, {-71.10, 42.40}, {-71.10, 42.30},
	}}
	layer, err := geoview.NewElement(geoview.KindPolygons, crs.NewPlateCarree(0),
		[]geoview.Record{
			geoview.NewRecord(harbour, map[string]any{"name": "Boston Harbor"}),
		})
	if err != nil {
		log.Fatal(err)
	}

	// Reproject to web Mercator
	p, err := geoview.NewProjector(geoview.DefaultProjectOptions())
	if err != nil {
		log.Fatal(err)
	}
	merc, diag, err := p.Project(layer, crs.Mercator)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Records: %d (dropped %d)\n", merc.Len(), diag.Dropped)

	// Get projected bounds
	ext := merc.DataExtent()
	fmt.Printf("Bounds: [%.1f,%.1f] to [%.1f,%.1f]\n",
		ext.MinX, ext.MinY,
		ext.MaxX, ext.MaxY)

	// Extents across the antimeridian wrap into range
	wrapped, err := geoview.ProjectExtent(
		geoview.Extent{MinX: 350, MinY: -10, MaxX: 370, MaxY: 10},
		crs.NewPlateCarree(0), crs.Mercator)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrapped extent: %v\n", wrapped)
}
