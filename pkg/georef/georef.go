// Package georef converts between radar-relative spherical coordinates,
// a site-centered Cartesian frame, and geographic coordinates.
//
// Gate positions follow the standard radar beam geometry with a 4/3
// effective earth radius correction for atmospheric refraction. Geographic
// labeling uses the azimuthal equidistant (AEQD) projection centered on the
// radar site, which preserves true distance from the site.
package georef

import (
	"math"

	"radarx/internal/models"
	"radarx/internal/units"
)

// keFactor is the effective earth radius multiplier for standard
// atmospheric refraction.
const keFactor = 4.0 / 3.0

// GRS80 reference ellipsoid semi-axes in meters.
const (
	semiMajorAxis = 6378137.0
	semiMinorAxis = 6356752.314140
)

// EarthRadius returns the geocentric earth radius in meters at the given
// latitude (degrees), computed from the GRS80 reference ellipsoid.
func EarthRadius(lat float64) float64 {
	latRad := units.Deg2Rad(lat)
	a2cos := semiMajorAxis * semiMajorAxis * math.Cos(latRad)
	b2sin := semiMinorAxis * semiMinorAxis * math.Sin(latRad)
	acos := semiMajorAxis * math.Cos(latRad)
	bsin := semiMinorAxis * math.Sin(latRad)
	return math.Sqrt((a2cos*a2cos + b2sin*b2sin) / (acos*acos + bsin*bsin))
}

// AntennaToCartesian converts a gate at slant range rng (meters), azimuth
// azDeg and elevation elDeg (degrees) into site-relative Cartesian
// coordinates. x points east, y north, z up; z is height above the antenna,
// not above sea level. earthRadius is the true (not effective) earth radius
// at the site.
func AntennaToCartesian(rng, azDeg, elDeg, earthRadius float64) (x, y, z float64) {
	re := earthRadius * keFactor
	az := units.Deg2Rad(azDeg)
	el := units.Deg2Rad(elDeg)

	z = math.Sqrt(rng*rng+re*re+2.0*rng*re*math.Sin(el)) - re
	// Arc distance along the earth surface to the point below the gate.
	s := re * math.Asin(rng*math.Cos(el)/(re+z))
	x = s * math.Sin(az)
	y = s * math.Cos(az)
	return x, y, z
}

// CartesianToGeographic transforms site-relative (x, y) in meters to
// geographic (lon, lat) in degrees using the AEQD projection centered at
// (lon0, lat0) with the given earth radius. The site itself (x = y = 0) maps
// exactly to (lon0, lat0).
func CartesianToGeographic(x, y, lon0, lat0, earthRadius float64) (lon, lat float64) {
	lat0Rad := units.Deg2Rad(lat0)
	lon0Rad := units.Deg2Rad(lon0)

	rho := math.Hypot(x, y)
	if rho == 0 {
		return lon0, lat0
	}
	c := rho / earthRadius

	latRad := math.Asin(math.Cos(c)*math.Sin(lat0Rad) + y*math.Sin(c)*math.Cos(lat0Rad)/rho)

	x1 := x * math.Sin(c)
	x2 := rho*math.Cos(lat0Rad)*math.Cos(c) - y*math.Sin(lat0Rad)*math.Sin(c)
	lonRad := lon0Rad + math.Atan2(x1, x2)

	return units.NormalizeLon(units.Rad2Deg(lonRad)), units.Rad2Deg(latRad)
}

// GeographicToCartesian is the inverse of CartesianToGeographic: it projects
// geographic (lon, lat) in degrees onto the site-relative AEQD plane,
// returning (x, y) in meters.
func GeographicToCartesian(lon, lat, lon0, lat0, earthRadius float64) (x, y float64) {
	latRad := units.Deg2Rad(lat)
	lat0Rad := units.Deg2Rad(lat0)
	dlon := units.Deg2Rad(lon - lon0)

	cosC := math.Sin(lat0Rad)*math.Sin(latRad) + math.Cos(lat0Rad)*math.Cos(latRad)*math.Cos(dlon)
	if cosC > 1 {
		cosC = 1
	} else if cosC < -1 {
		cosC = -1
	}
	c := math.Acos(cosC)

	k := 1.0
	if c != 0 {
		k = c / math.Sin(c)
	}
	x = earthRadius * k * math.Cos(latRad) * math.Sin(dlon)
	y = earthRadius * k * (math.Cos(lat0Rad)*math.Sin(latRad) - math.Sin(lat0Rad)*math.Cos(latRad)*math.Cos(dlon))
	return x, y
}

// Georeference fills in the Cartesian gate coordinates of a sweep from its
// azimuth/range/elevation geometry and site location. Z is absolute altitude:
// beam height above the antenna plus the site altitude. It returns a
// DimensionMismatchError if the sweep's arrays are inconsistent.
func Georeference(s *models.Sweep) error {
	if err := s.Validate(); err != nil {
		return err
	}
	nAz := len(s.Azimuths)
	nRg := len(s.Ranges)
	n := nAz * nRg

	earthRadius := EarthRadius(s.Site.Lat)

	s.X = make([]float64, n)
	s.Y = make([]float64, n)
	s.Z = make([]float64, n)
	for i, az := range s.Azimuths {
		base := i * nRg
		for j, rng := range s.Ranges {
			x, y, z := AntennaToCartesian(rng, az, s.Elevation, earthRadius)
			s.X[base+j] = x
			s.Y[base+j] = y
			s.Z[base+j] = z + s.Site.Alt
		}
	}
	return nil
}
