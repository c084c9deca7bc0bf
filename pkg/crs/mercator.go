package crs

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MercatorPole is the half-extent of the spherical Mercator plane in metres.
const MercatorPole = 20037508.342789244

// MercatorMaxLatitude is the latitude in degrees at which the Mercator y
// coordinate reaches MercatorPole.
var MercatorMaxLatitude = math.Atan(math.Sinh(math.Pi)) * 180 / math.Pi

// Mercator is the spherical Mercator system used by web map tiles. Its
// square domain ends at latitude ±MercatorMaxLatitude.
var Mercator CRS = mercator{}

type mercator struct{}

func (mercator) Name() string { return "Mercator" }

func (mercator) Kind() Kind { return KindMercator }

func (mercator) Periodic() bool { return true }

func (mercator) CentralLongitude() float64 { return 0 }

func (mercator) XLimits() (float64, float64) { return -MercatorPole, MercatorPole }
func (mercator) YLimits() (float64, float64) { return -MercatorPole, MercatorPole }

func (mercator) Boundary() orb.Ring {
	return boundsRing(-MercatorPole, -MercatorPole, MercatorPole, MercatorPole)
}

// Threshold is one 720th of the x range.
func (mercator) Threshold() float64 { return 2 * MercatorPole / 720 }

func (m mercator) ToGeodetic(x, y float64) (float64, float64, error) {
	if !finite(x, y) || y < -MercatorPole || y > MercatorPole {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "Mercator: (%g, %g)", x, y)
	}
	x = Wrap(x, -MercatorPole, 2*MercatorPole)
	ll := project.Mercator.ToWGS84(orb.Point{x, y})
	return Wrap(ll[0], -180, 360), ll[1], nil
}

func (m mercator) FromGeodetic(lon, lat float64) (float64, float64, error) {
	// latitudes a rounding step past the limit come from the domain edge itself
	limit := MercatorMaxLatitude + 1e-9
	if !finite(lon, lat) || lat < -limit || lat > limit {
		return 0, 0, errors.Wrapf(ErrOutOfDomain, "Mercator: (%g, %g)", lon, lat)
	}
	p := project.WGS84.ToMercator(orb.Point{Wrap(lon, -180, 360), lat})
	y := math.Max(-MercatorPole, math.Min(MercatorPole, p[1]))
	return p[0], y, nil
}
