// Package grid builds target grid specifications, flattens radar sweeps into
// point clouds, and assembles interpolated fields into labeled gridded
// products.
package grid

import (
	"fmt"
	"math"

	"radarx/internal/models"
	"radarx/pkg/georef"
)

// InvalidRangeError reports a malformed grid axis: a non-positive step or an
// empty interval. Grid construction validates eagerly, so this surfaces
// before any interpolation work begins.
type InvalidRangeError struct {
	Axis string
	Min  float64
	Max  float64
	Step float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s axis: min=%g max=%g step=%g (need step > 0 and min < max)",
		e.Axis, e.Min, e.Max, e.Step)
}

// Spec describes the destination lattice: three closed axes plus the
// projection context needed to recover geographic coordinates for every
// cell. A Spec is immutable once built.
type Spec struct {
	XLim, YLim, ZLim    [2]float64
	XStep, YStep, ZStep float64

	// X, Y, Z are the axis coordinates in meters, radar relative.
	X, Y, Z []float64

	// Origin is the radar site the grid is centered on; the AEQD
	// projection used for geographic labeling is centered here.
	Origin models.Site

	// EarthRadius is the earth radius at the origin latitude, in meters.
	EarthRadius float64
}

// NewSpec validates the axis limits and builds the grid axes for a volume
// acquired at the given site. Each axis is the closed sequence
// min, min+step, ... up to and including max when it falls on a step.
// Identical inputs always produce bit-identical axes.
func NewSpec(site models.Site, xLim [2]float64, xStep float64, yLim [2]float64, yStep float64, zLim [2]float64, zStep float64) (*Spec, error) {
	for _, ax := range []struct {
		name string
		lim  [2]float64
		step float64
	}{
		{"x", xLim, xStep},
		{"y", yLim, yStep},
		{"z", zLim, zStep},
	} {
		if ax.step <= 0 || ax.lim[0] >= ax.lim[1] {
			return nil, &InvalidRangeError{Axis: ax.name, Min: ax.lim[0], Max: ax.lim[1], Step: ax.step}
		}
	}

	return &Spec{
		XLim: xLim, YLim: yLim, ZLim: zLim,
		XStep: xStep, YStep: yStep, ZStep: zStep,
		X:           axis(xLim[0], xLim[1], xStep),
		Y:           axis(yLim[0], yLim[1], yStep),
		Z:           axis(zLim[0], zLim[1], zStep),
		Origin:      site,
		EarthRadius: georef.EarthRadius(site.Lat),
	}, nil
}

// axis builds the closed coordinate sequence for one dimension. Values are
// computed by index multiplication, not repeated addition, so the result is
// deterministic and free of accumulated rounding.
func axis(min, max, step float64) []float64 {
	n := int(math.Floor((max-min)/step)) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = min + float64(i)*step
	}
	return vals
}

// NumCells returns the total cell count of the grid.
func (s *Spec) NumCells() int {
	return len(s.X) * len(s.Y) * len(s.Z)
}
