package crs

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
)

const geodeticDefinition = "+proj=longlat +datum=WGS84 +no_defs"

// Proj4 is a system described by a PROJ.4 definition string. Its valid
// domain is given in geodetic degrees and its boundary is the envelope of
// that domain in projected coordinates. Proj4 systems never wrap.
type Proj4 struct {
	name       string
	definition string
	domain     orb.Bound
	forward    proj.Transformer
	inverse    proj.Transformer
	boundary   orb.Ring
	xmin, xmax float64
	ymin, ymax float64
	threshold  float64
}

// NewProj4 parses definition and builds a system valid over domain, a
// longitude/latitude bound in degrees. An empty name defaults to the
// definition itself.
//
// Example:
//
//	utm, err := crs.NewProj4("UTM 19N",
//	    "+proj=utm +zone=19 +datum=WGS84 +units=m +no_defs",
//	    orb.Bound{Min: orb.Point{-72, 0}, Max: orb.Point{-66, 84}})
func NewProj4(name, definition string, domain orb.Bound) (*Proj4, error) {
	if name == "" {
		name = fmt.Sprintf("Proj4(%s)", definition)
	}
	if domain.Min[0] >= domain.Max[0] || domain.Min[1] >= domain.Max[1] {
		return nil, errors.Newf("proj4 %q: empty domain %v", name, domain)
	}

	geo, err := proj.Parse(geodeticDefinition)
	if err != nil {
		return nil, errors.Wrap(err, "parse geodetic reference")
	}
	sr, err := proj.Parse(definition)
	if err != nil {
		return nil, errors.Wrapf(err, "parse proj4 definition %q", definition)
	}
	forward, err := geo.NewTransform(sr)
	if err != nil {
		return nil, errors.Wrapf(err, "build forward transform for %q", name)
	}
	inverse, err := sr.NewTransform(geo)
	if err != nil {
		return nil, errors.Wrapf(err, "build inverse transform for %q", name)
	}

	p := &Proj4{
		name:       name,
		definition: definition,
		domain:     domain,
		forward:    forward,
		inverse:    inverse,
	}
	if err := p.buildBoundary(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildBoundary forwards the densified domain rectangle and keeps its
// envelope.
func (p *Proj4) buildBoundary() error {
	const steps = 64
	b := orb.Bound{}
	first := true
	edge := func(x0, y0, x1, y1 float64) error {
		for i := 0; i <= steps; i++ {
			t := float64(i) / steps
			x, y, err := p.forward(x0+(x1-x0)*t, y0+(y1-y0)*t)
			if err != nil {
				return errors.Wrapf(err, "proj4 %q: project domain edge", p.name)
			}
			if !finite(x, y) {
				return errors.Wrapf(ErrOutOfDomain, "proj4 %q: domain edge", p.name)
			}
			if first {
				b = orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x, y}}
				first = false
			} else {
				b = b.Extend(orb.Point{x, y})
			}
		}
		return nil
	}

	d := p.domain
	for _, e := range [][4]float64{
		{d.Min[0], d.Min[1], d.Max[0], d.Min[1]},
		{d.Max[0], d.Min[1], d.Max[0], d.Max[1]},
		{d.Max[0], d.Max[1], d.Min[0], d.Max[1]},
		{d.Min[0], d.Max[1], d.Min[0], d.Min[1]},
	} {
		if err := edge(e[0], e[1], e[2], e[3]); err != nil {
			return err
		}
	}

	p.xmin, p.ymin = b.Min[0], b.Min[1]
	p.xmax, p.ymax = b.Max[0], b.Max[1]
	p.boundary = boundsRing(p.xmin, p.ymin, p.xmax, p.ymax)
	p.threshold = (p.xmax - p.xmin) / 720
	return nil
}

// Name implements CRS.
func (p *Proj4) Name() string { return p.name }

// Definition returns the PROJ.4 string the system was built from.
func (p *Proj4) Definition() string { return p.definition }

// Domain returns the geodetic bound the system is valid over.
func (p *Proj4) Domain() orb.Bound { return p.domain }

// Kind implements CRS.
func (p *Proj4) Kind() Kind { return KindProj4 }

// XLimits implements CRS.
func (p *Proj4) XLimits() (float64, float64) { return p.xmin, p.xmax }

// YLimits implements CRS.
func (p *Proj4) YLimits() (float64, float64) { return p.ymin, p.ymax }

// Boundary implements CRS.
func (p *Proj4) Boundary() orb.Ring { return append(orb.Ring(nil), p.boundary...) }

// Threshold implements CRS.
func (p *Proj4) Threshold() float64 { return p.threshold }

// Periodic implements CRS.
func (p *Proj4) Periodic() bool { return false }

// CentralLongitude implements CRS.
func (p *Proj4) CentralLongitude() float64 { return 0 }

// ToGeodetic implements CRS.
func (p *Proj4) ToGeodetic(x, y float64) (float64, float64, error) {
	if !finite(x, y) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: (%g, %g)", p.name, x, y)
	}
	lon, lat, err := p.inverse(x, y)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "%s: inverse (%g, %g)", p.name, x, y)
	}
	if !finite(lon, lat) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: inverse (%g, %g)", p.name, x, y)
	}
	return lon, lat, nil
}

// FromGeodetic implements CRS. Coordinates outside the domain are still
// projected; callers clip against Boundary.
func (p *Proj4) FromGeodetic(lon, lat float64) (float64, float64, error) {
	if !finite(lon, lat) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: (%g, %g)", p.name, lon, lat)
	}
	x, y, err := p.forward(lon, lat)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "%s: forward (%g, %g)", p.name, lon, lat)
	}
	if !finite(x, y) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: forward (%g, %g)", p.name, lon, lat)
	}
	return x, y, nil
}
