package crs

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// PlateCarree is the equirectangular projection: x is longitude relative to
// the central longitude and y is latitude, both in degrees.
type PlateCarree struct {
	central float64
	name    string
}

// NewPlateCarree returns a PlateCarree system centred on centralLongitude.
func NewPlateCarree(centralLongitude float64) *PlateCarree {
	return &PlateCarree{
		central: centralLongitude,
		name:    fmt.Sprintf("PlateCarree(central_longitude=%g)", centralLongitude),
	}
}

// Name implements CRS.
func (p *PlateCarree) Name() string { return p.name }

// Kind implements CRS.
func (p *PlateCarree) Kind() Kind { return KindPlateCarree }

// XLimits implements CRS.
func (p *PlateCarree) XLimits() (float64, float64) { return -180, 180 }

// YLimits implements CRS.
func (p *PlateCarree) YLimits() (float64, float64) { return -90, 90 }

// Boundary implements CRS.
func (p *PlateCarree) Boundary() orb.Ring { return boundsRing(-180, -90, 180, 90) }

// Threshold implements CRS.
func (p *PlateCarree) Threshold() float64 { return 0.5 }

// Periodic implements CRS.
func (p *PlateCarree) Periodic() bool { return true }

// CentralLongitude implements CRS.
func (p *PlateCarree) CentralLongitude() float64 { return p.central }

// ToGeodetic implements CRS. Any x is accepted and wrapped; y must lie
// within [-90, 90].
func (p *PlateCarree) ToGeodetic(x, y float64) (float64, float64, error) {
	if !finite(x, y) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: (%g, %g)", p.name, x, y)
	}
	if y < -90 || y > 90 {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: latitude %g", p.name, y)
	}
	return Wrap(x+p.central, -180, 360), y, nil
}

// FromGeodetic implements CRS.
func (p *PlateCarree) FromGeodetic(lon, lat float64) (float64, float64, error) {
	if !finite(lon, lat) {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: (%g, %g)", p.name, lon, lat)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "%s: latitude %g", p.name, lat)
	}
	return Wrap(lon-p.central, -180, 360), lat, nil
}
