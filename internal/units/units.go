// Package units provides the angle and length conversions shared by the
// georeferencing code and the command line tools.
package units

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// KmToM converts kilometers to meters.
func KmToM(km float64) float64 {
	return km * 1000.0
}

// MToKm converts meters to kilometers.
func MToKm(m float64) float64 {
	return m / 1000.0
}

// NormalizeLon wraps a longitude in degrees into [-180, 180).
func NormalizeLon(lon float64) float64 {
	m := math.Mod(lon+180.0, 360.0)
	if m < 0 {
		m += 360.0
	}
	return m - 180.0
}
