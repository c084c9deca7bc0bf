package geoview

import (
	"math"
	"runtime"

	"go.uber.org/zap"
)

// RasterMode selects how image elements are reprojected.
type RasterMode int

const (
	// RasterAccurate forward-maps every source pixel center and assigns
	// each destination pixel its nearest source sample.
	RasterAccurate RasterMode = iota

	// RasterFast splits the image into stripes at the wrap seam and
	// inverse-maps a destination grid per stripe. It only applies to
	// periodic source systems and is inaccurate near poles and other
	// singularities.
	RasterFast
)

func (m RasterMode) String() string {
	switch m {
	case RasterAccurate:
		return "accurate"
	case RasterFast:
		return "fast"
	default:
		return "unknown"
	}
}

// RasterOptions controls image reprojection.
type RasterOptions struct {
	// Mode selects the warp algorithm.
	Mode RasterMode

	// Width and Height set the output size in pixels.
	// Zero keeps the source size.
	Width  int
	Height int
}

// ProjectOptions configures a Projector.
type ProjectOptions struct {
	// Logger receives warnings about records lost in projection.
	// If nil, logging is disabled.
	Logger *zap.Logger

	// Epsilon shrinks extents inward before projection so samples never
	// sit exactly on a domain edge.
	Epsilon float64

	// Raster controls image reprojection.
	Raster RasterOptions
}

// DefaultProjectOptions returns projection options with sensible defaults.
func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{
		Logger:  nil,
		Epsilon: 1e-6,
		Raster: RasterOptions{
			Mode: RasterAccurate,
		},
	}
}

// Validate checks the options for out-of-range values.
func (o ProjectOptions) Validate() error {
	if math.IsNaN(o.Epsilon) || math.IsInf(o.Epsilon, 0) || o.Epsilon < 0 {
		return &ErrConfiguration{Field: "Epsilon", Reason: "must be a finite non-negative number"}
	}
	if o.Raster.Mode != RasterAccurate && o.Raster.Mode != RasterFast {
		return &ErrConfiguration{Field: "Raster.Mode", Reason: "unknown raster mode"}
	}
	if o.Raster.Width < 0 || o.Raster.Height < 0 {
		return &ErrConfiguration{Field: "Raster.Width", Reason: "output size must not be negative"}
	}
	return nil
}

// ResampleConfig controls a single Resample call.
type ResampleConfig struct {
	// Cache reuses simplified geometries across calls at the same zoom.
	Cache bool

	// Clip trims every surviving geometry to the viewport. Clipped
	// results are never cached.
	Clip bool

	// DisplayThreshold drops geometries whose area is below this fraction
	// of the viewport area. Must be in [0, 1].
	DisplayThreshold float64

	// ToleranceFactor scales the simplification tolerance relative to the
	// square root of the viewport area. Must be positive.
	ToleranceFactor float64

	// ZoomLevels is the number of zoom buckets used as cache keys.
	ZoomLevels int

	// PreserveTopology keeps parts and rings that would collapse.
	PreserveTopology bool
}

// DefaultResampleConfig returns the resampling defaults.
func DefaultResampleConfig() ResampleConfig {
	return ResampleConfig{
		Cache:            true,
		Clip:             false,
		DisplayThreshold: 1e-4,
		ToleranceFactor:  0.002,
		ZoomLevels:       20,
		PreserveTopology: false,
	}
}

// Validate returns an *ErrConfiguration naming the first invalid field.
func (c ResampleConfig) Validate() error {
	if math.IsNaN(c.DisplayThreshold) || c.DisplayThreshold < 0 || c.DisplayThreshold > 1 {
		return &ErrConfiguration{Field: "DisplayThreshold", Reason: "must be in [0, 1]"}
	}
	if math.IsNaN(c.ToleranceFactor) || math.IsInf(c.ToleranceFactor, 0) || c.ToleranceFactor <= 0 {
		return &ErrConfiguration{Field: "ToleranceFactor", Reason: "must be a positive number"}
	}
	if c.ZoomLevels <= 0 {
		return &ErrConfiguration{Field: "ZoomLevels", Reason: "must be positive"}
	}
	return nil
}

// ResamplerOptions configures a Resampler.
type ResamplerOptions struct {
	// CacheSize bounds the estimated memory held by cached source states,
	// in bytes. Zero means unlimited.
	CacheSize int64

	// Logger receives debug events for index builds and evictions.
	// If nil, logging is disabled.
	Logger *zap.Logger
}

// DefaultResamplerOptions returns resampler options with a 256 MiB cache.
func DefaultResamplerOptions() ResamplerOptions {
	return ResamplerOptions{
		CacheSize: 256 * 1024 * 1024,
		Logger:    nil,
	}
}

// ParallelOptions controls ProjectAll.
type ParallelOptions struct {
	// Parallel enables concurrent projection.
	// When false, elements are projected one at a time.
	Parallel bool

	// Workers specifies the number of worker goroutines.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors keeps going when individual elements fail.
	// Failed elements are left out of the result and their errors collected.
	// When false, the first error stops the run and is returned alone.
	SkipErrors bool

	// Progress is an optional callback called after each element,
	// successful or not, with the count processed so far.
	Progress func(done, total int)

	// Logger receives one entry per failed element.
	// If nil, logging is disabled.
	Logger *zap.Logger
}

// DefaultParallelOptions returns parallel options with sensible defaults.
func DefaultParallelOptions() ParallelOptions {
	return ParallelOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
