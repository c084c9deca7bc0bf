package main

import (
	"fmt"
	"log"
	"math"

	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/beetlebugorg/geoview/pkg/geoview"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// A wiggly coastline of 5000 vertices
	coast := make(orb.LineString, 5000)
	for i := range coast {
		x := -72 + float64(i)*0.0004
		coast[i] = orb.Point{x, 42.3 + 0.01*math.Sin(x*300)}
	}
	layer, err := geoview.NewElement(geoview.KindPath, crs.NewPlateCarree(0),
		[]geoview.Record{geoview.NewRecord(coast, nil)})
	if err != nil {
		log.Fatal(err)
	}

	rs, err := geoview.NewResampler(geoview.ResamplerOptions{
		CacheSize: 64 * 1024 * 1024,
		Logger:    logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Zoom in step by step (Boston Harbor area)
	viewports := []geoview.Extent{
		{MinX: -72.0, MinY: 41.5, MaxX: -70.0, MaxY: 43.0},
		{MinX: -71.5, MinY: 42.0, MaxX: -71.0, MaxY: 42.5},
		{MinX: -71.1, MinY: 42.3, MaxX: -71.0, MaxY: 42.4},
	}
	cfg := geoview.DefaultResampleConfig()

	for _, vp := range viewports {
		visible, err := rs.Resample(layer, &vp, cfg)
		if err != nil {
			log.Fatal(err)
		}

		vertices := 0
		for _, rec := range visible.Records() {
			vertices += len(rec.Geometry.(orb.LineString))
		}
		fmt.Printf("%v: %d records, %d vertices\n", vp, visible.Len(), vertices)
	}

	stats := rs.Stats()
	fmt.Printf("Cache: %d sources, %d bytes, hit rate %.0f%%\n",
		stats.CachedSources, stats.UsedMemory, stats.HitRate()*100)
}
