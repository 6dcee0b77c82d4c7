package models

import (
	"fmt"
	"time"
)

// Site describes the fixed radar installation a volume was acquired from.
type Site struct {
	// Lat is the site latitude in degrees north.
	Lat float64

	// Lon is the site longitude in degrees east.
	Lon float64

	// Alt is the antenna altitude above mean sea level in meters.
	Alt float64

	// Name is the instrument name as reported by the data provider.
	Name string
}

// Sweep is a single-elevation radar scan: a 2D field over azimuth and range.
// Moment arrays are stored row-major with azimuth as the slow dimension, so
// the gate at (azimuth i, range j) lives at index i*len(Ranges)+j. Missing or
// invalid gates are NaN; they never carry a numeric sentinel.
type Sweep struct {
	// Elevation is the nominal elevation angle of the sweep in degrees.
	Elevation float64

	// Azimuths holds the per-ray azimuth angles in degrees, ordered but not
	// necessarily uniformly spaced.
	Azimuths []float64

	// Ranges holds the gate center distances from the antenna in meters,
	// with uniform gate spacing.
	Ranges []float64

	// Moments maps a moment name (e.g. "DBZ") to its gate values.
	// Each array has len(Azimuths)*len(Ranges) entries.
	Moments map[string][]float64

	// X, Y, Z are the Cartesian gate positions relative to the site,
	// filled in by georeferencing. Nil until then. Z is absolute altitude
	// (site altitude included).
	X, Y, Z []float64

	// Time is the sweep start time.
	Time time.Time

	// Site is the radar location the sweep was acquired from.
	Site Site
}

// NumGates returns the total gate count of the sweep.
func (s *Sweep) NumGates() int {
	return len(s.Azimuths) * len(s.Ranges)
}

// Validate checks that every moment array matches the azimuth/range geometry
// and that georeferenced coordinates, when present, cover every gate.
func (s *Sweep) Validate() error {
	n := s.NumGates()
	for name, vals := range s.Moments {
		if len(vals) != n {
			return &DimensionMismatchError{What: "moment " + name, Want: n, Got: len(vals)}
		}
	}
	if s.X != nil || s.Y != nil || s.Z != nil {
		for _, c := range []struct {
			name string
			arr  []float64
		}{{"x", s.X}, {"y", s.Y}, {"z", s.Z}} {
			if len(c.arr) != n {
				return &DimensionMismatchError{What: "coordinate " + c.name, Want: n, Got: len(c.arr)}
			}
		}
	}
	return nil
}

// Volume is an ordered collection of sweeps forming one scan cycle. Sweeps
// share one site; they need not be uniformly spaced in elevation and may
// repeat elevations across physical scans.
type Volume struct {
	Sweeps []Sweep

	Site Site

	// Start and End bound the acquisition time window.
	Start time.Time
	End   time.Time

	// Attrs carries provider metadata (conventions, instrument name, ...)
	// copied unmodified onto gridded products.
	Attrs map[string]string
}

// GriddedField is the output of a gridding call: one or more moments mapped
// onto a regular Cartesian lattice, with derived geographic coordinates and
// volume metadata attached. Cells that received no contribution are NaN.
type GriddedField struct {
	// Data maps each gridded moment name to its values, stored z-major:
	// index iz*len(Y)*len(X) + iy*len(X) + ix.
	Data map[string][]float64

	// X, Y, Z are the grid axes in meters, radar relative. For pseudo-CAPPI
	// products Z has a single synthetic layer.
	X, Y, Z []float64

	// Lons and Lats hold the geographic coordinates of every (y, x) cell
	// center, len(Y)*len(X) each, identical across vertical levels.
	Lons, Lats []float64

	// Time is the nominal acquisition time, the mean of the contributing
	// sweep times.
	Time time.Time

	Site Site

	// Product identifies the gridding mode that produced the field,
	// e.g. "volumetric", "cappi", "maxcappi".
	Product string

	// Attrs is the source volume's metadata, copied unmodified.
	Attrs map[string]string
}

// At returns the value of variable name at grid indices (iz, iy, ix).
func (g *GriddedField) At(name string, iz, iy, ix int) float64 {
	return g.Data[name][iz*len(g.Y)*len(g.X)+iy*len(g.X)+ix]
}

// DimensionMismatchError reports a sweep whose coordinate and moment arrays
// disagree in shape.
type DimensionMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: want %d values, got %d", e.What, e.Want, e.Got)
}
