package grid

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"radarx/internal/models"
	"radarx/pkg/georef"
)

// PointCloud is the flat, variable-length sample sequence a volume is
// reduced to before interpolation. Gates that are invalid for every
// requested moment are dropped at flatten time, so no sentinel value can
// leak into a weighted average; gates valid for only some moments keep NaN
// in the other moments' value arrays and are skipped per variable during
// accumulation.
type PointCloud struct {
	// X, Y, Z are the sample positions in the site-centered Cartesian
	// frame, meters.
	X, Y, Z []float64

	// Values maps each moment name to its per-point values, aligned with
	// the coordinate arrays. NaN marks a gate invalid for that moment.
	Values map[string][]float64

	// SweepIdx records which sweep of the source volume each point came
	// from.
	SweepIdx []int

	// Elevations records the nominal elevation angle of each point's
	// source sweep, degrees.
	Elevations []float64
}

// Len returns the number of points in the cloud.
func (c *PointCloud) Len() int {
	return len(c.X)
}

// FlattenSweep converts one georeferenced sweep into a point cloud carrying
// the requested moments. The sweep must have been georeferenced first.
// Points where every requested moment is NaN are dropped entirely.
func FlattenSweep(s *models.Sweep, dataVars []string, sweepIdx int) (*PointCloud, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := s.NumGates()
	if len(s.X) != n {
		return nil, &models.DimensionMismatchError{What: "georeferenced coordinates", Want: n, Got: len(s.X)}
	}

	cloud := &PointCloud{Values: make(map[string][]float64, len(dataVars))}
	for _, v := range dataVars {
		cloud.Values[v] = make([]float64, 0, n)
	}

	for i := 0; i < n; i++ {
		valid := false
		for _, v := range dataVars {
			vals, ok := s.Moments[v]
			if ok && !math.IsNaN(vals[i]) {
				valid = true
				break
			}
		}
		if !valid {
			continue
		}
		cloud.X = append(cloud.X, s.X[i])
		cloud.Y = append(cloud.Y, s.Y[i])
		cloud.Z = append(cloud.Z, s.Z[i])
		cloud.SweepIdx = append(cloud.SweepIdx, sweepIdx)
		cloud.Elevations = append(cloud.Elevations, s.Elevation)
		for _, v := range dataVars {
			vals, ok := s.Moments[v]
			if !ok {
				cloud.Values[v] = append(cloud.Values[v], math.NaN())
				continue
			}
			cloud.Values[v] = append(cloud.Values[v], vals[i])
		}
	}
	return cloud, nil
}

// MergeVolume georeferences every sweep of a volume and concatenates the
// per-sweep point clouds into one. Sweeps are flattened in parallel but
// concatenated in volume order, so the result does not depend on
// scheduling; interpolation is in any case invariant to point order.
func MergeVolume(vol *models.Volume, dataVars []string) (*PointCloud, error) {
	clouds := make([]*PointCloud, len(vol.Sweeps))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range vol.Sweeps {
		i := i
		g.Go(func() error {
			s := &vol.Sweeps[i]
			if s.X == nil {
				if err := georef.Georeference(s); err != nil {
					return err
				}
			}
			c, err := FlattenSweep(s, dataVars, i)
			if err != nil {
				return err
			}
			clouds[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &PointCloud{Values: make(map[string][]float64, len(dataVars))}
	for _, v := range dataVars {
		merged.Values[v] = nil
	}
	for _, c := range clouds {
		merged.X = append(merged.X, c.X...)
		merged.Y = append(merged.Y, c.Y...)
		merged.Z = append(merged.Z, c.Z...)
		merged.SweepIdx = append(merged.SweepIdx, c.SweepIdx...)
		merged.Elevations = append(merged.Elevations, c.Elevations...)
		for _, v := range dataVars {
			merged.Values[v] = append(merged.Values[v], c.Values[v]...)
		}
	}
	return merged, nil
}
