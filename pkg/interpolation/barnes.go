// Package interpolation maps a flattened radar point cloud onto a regular
// Cartesian grid with a Barnes-type weighted scheme: a separable anisotropic
// Gaussian kernel with independently tunable smoothing along each axis.
//
// Two modes are provided. GridVolumetric blends contributions in all three
// dimensions. GridPseudoCAPPI treats the horizontal dimensions identically
// but replaces the vertical blend with a per-column sweep selection, trading
// vertical fidelity for throughput.
package interpolation

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/kdtree"

	"radarx/pkg/grid"
)

// DefaultCutoffFactor bounds the neighbor search: points farther than
// CutoffFactor times the largest smoothing length from a cell center are
// excluded. At the default the discarded weights are below exp(-16).
const DefaultCutoffFactor = 4.0

// weightFloor is the total-weight threshold below which a cell is marked as
// having no data rather than dividing by a vanishing sum.
const weightFloor = 1e-12

// SmoothingParams holds the per-axis smoothing factors of the Barnes kernel.
// Each factor is expressed in grid steps: the Gaussian length scale along an
// axis is the factor times that axis' step. A factor of exactly zero
// degenerates the axis to nearest-point behavior instead of dividing by
// zero.
type SmoothingParams struct {
	SX, SY, SZ float64

	// CutoffFactor overrides DefaultCutoffFactor when positive.
	CutoffFactor float64
}

// ProgressCallback is a function that reports progress during gridding.
type ProgressCallback func(completed, total int, message string)

// samplePoint is one cloud point in the KD-tree, carrying its index back
// into the point cloud arrays.
type samplePoint struct {
	x, y, z float64
	idx     int
}

// Compare implements the kdtree.Comparable interface.
func (p samplePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(samplePoint)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	case 2:
		return p.z - q.z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p samplePoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points.
func (p samplePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(samplePoint)
	dx := p.x - q.x
	dy := p.y - q.y
	dz := p.z - q.z
	return dx*dx + dy*dy + dz*dz
}

// samplePoints is a collection of samplePoint that satisfies kdtree.Interface.
type samplePoints []samplePoint

func (p samplePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p samplePoints) Len() int                              { return len(p) }
func (p samplePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p samplePoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(samplePlane{samplePoints: p, Dim: d}, kdtree.MedianOfRandoms(samplePlane{samplePoints: p, Dim: d}, 100))
}

// samplePlane implements sort.Interface and kdtree.SortSlicer for samplePoints.
type samplePlane struct {
	samplePoints
	kdtree.Dim
}

func (p samplePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.samplePoints[i].x < p.samplePoints[j].x
	case 1:
		return p.samplePoints[i].y < p.samplePoints[j].y
	case 2:
		return p.samplePoints[i].z < p.samplePoints[j].z
	default:
		panic("illegal dimension")
	}
}

func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	return samplePlane{samplePoints: p.samplePoints[start:end], Dim: p.Dim}
}

func (p samplePlane) Swap(i, j int) {
	p.samplePoints[i], p.samplePoints[j] = p.samplePoints[j], p.samplePoints[i]
}

// Engine grids one point cloud onto one target grid. It is pure with
// respect to its inputs: the same cloud, spec and smoothing parameters
// always produce the same output, regardless of point order or worker
// count. An Engine is safe for concurrent gridding of different variables
// once constructed.
type Engine struct {
	cloud  *grid.PointCloud
	spec   *grid.Spec
	params SmoothingParams

	// Gaussian length scales in meters (smoothing factor x axis step).
	sigmaX, sigmaY, sigmaZ float64

	// Search radii in meters for the volumetric and column searches.
	radius   float64
	radiusXY float64

	tree *kdtree.Tree

	flatOnce sync.Once
	flatTree *kdtree.Tree

	workers  int
	progress ProgressCallback
}

// NewEngine validates the smoothing parameters and builds the spatial index
// for the cloud. Smoothing factors must be non-negative.
func NewEngine(cloud *grid.PointCloud, spec *grid.Spec, params SmoothingParams) (*Engine, error) {
	if params.SX < 0 || params.SY < 0 || params.SZ < 0 {
		return nil, fmt.Errorf("smoothing factors must be non-negative, got (%g, %g, %g)",
			params.SX, params.SY, params.SZ)
	}
	cutoff := params.CutoffFactor
	if cutoff <= 0 {
		cutoff = DefaultCutoffFactor
	}

	e := &Engine{
		cloud:   cloud,
		spec:    spec,
		params:  params,
		sigmaX:  params.SX * spec.XStep,
		sigmaY:  params.SY * spec.YStep,
		sigmaZ:  params.SZ * spec.ZStep,
		workers: runtime.NumCPU(),
	}

	// A zero smoothing length still needs a finite search window; half a
	// grid step keeps the nearest-point candidates reachable.
	rx := e.sigmaX * cutoff
	if e.sigmaX == 0 {
		rx = spec.XStep / 2
	}
	ry := e.sigmaY * cutoff
	if e.sigmaY == 0 {
		ry = spec.YStep / 2
	}
	rz := e.sigmaZ * cutoff
	if e.sigmaZ == 0 {
		rz = spec.ZStep / 2
	}
	e.radius = math.Max(rx, math.Max(ry, rz))
	e.radiusXY = math.Max(rx, ry)

	if cloud.Len() > 0 {
		pts := make(samplePoints, cloud.Len())
		for i := range pts {
			pts[i] = samplePoint{x: cloud.X[i], y: cloud.Y[i], z: cloud.Z[i], idx: i}
		}
		e.tree = kdtree.New(pts, true)
	}
	return e, nil
}

// SetWorkers sets the number of goroutines used per gridding call.
// Values below 1 reset to the CPU count.
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	e.workers = n
}

// SetProgressCallback registers a callback invoked as grid levels complete.
func (e *Engine) SetProgressCallback(cb ProgressCallback) {
	e.progress = cb
}

func (e *Engine) reportProgress(completed, total int, msg string) {
	if e.progress != nil {
		e.progress(completed, total, msg)
	}
}

// validTree builds a nearest-point index over only the cloud points whose
// value for the gridded variable is present. Points that are NaN for this
// variable may still be valid for another, so the shared 3-D tree cannot
// serve the fully degenerate (all smoothing zero) mode. Returns nil when no
// point qualifies.
func (e *Engine) validTree(vals []float64) *kdtree.Tree {
	pts := make(samplePoints, 0, e.cloud.Len())
	for i := range vals {
		if math.IsNaN(vals[i]) {
			continue
		}
		pts = append(pts, samplePoint{x: e.cloud.X[i], y: e.cloud.Y[i], z: e.cloud.Z[i], idx: i})
	}
	if len(pts) == 0 {
		return nil
	}
	return kdtree.New(pts, true)
}

// neighbors returns the cloud indices within the engine's search radius of
// the query position, sorted ascending so that accumulation order is fixed
// no matter how the tree returns them.
func (e *Engine) neighbors(q samplePoint, radius float64) []int {
	if e.tree == nil {
		return nil
	}
	keeper := kdtree.NewDistKeeper(radius * radius)
	e.tree.NearestSet(keeper, q)

	idx := make([]int, 0, keeper.Len())
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		idx = append(idx, item.Comparable.(samplePoint).idx)
	}
	sort.Ints(idx)
	return idx
}

// flatNeighbors is the horizontal-only variant used by pseudo-CAPPI: the
// cloud is projected onto the z = 0 plane so a column query sees every
// elevation.
func (e *Engine) flatNeighbors(cx, cy float64) []int {
	e.flatOnce.Do(func() {
		if e.cloud.Len() == 0 {
			return
		}
		pts := make(samplePoints, e.cloud.Len())
		for i := range pts {
			pts[i] = samplePoint{x: e.cloud.X[i], y: e.cloud.Y[i], idx: i}
		}
		e.flatTree = kdtree.New(pts, true)
	})
	if e.flatTree == nil {
		return nil
	}
	keeper := kdtree.NewDistKeeper(e.radiusXY * e.radiusXY)
	e.flatTree.NearestSet(keeper, samplePoint{x: cx, y: cy})

	idx := make([]int, 0, keeper.Len())
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		idx = append(idx, item.Comparable.(samplePoint).idx)
	}
	sort.Ints(idx)
	return idx
}

// sortedSum adds terms in ascending order. The fixed order makes the sum
// independent of how the contributing points were ordered in the cloud,
// which keeps gridding bit-identical under point permutation.
func sortedSum(terms []float64) float64 {
	sort.Float64s(terms)
	s := 0.0
	for _, t := range terms {
		s += t
	}
	return s
}

// axisWeights fills w with the per-candidate weight factors for one axis.
// A positive sigma applies the Gaussian factor; a zero sigma marks only the
// candidates closest to the cell center on this axis, which is the
// nearest-point degeneracy required for zero smoothing.
func axisWeights(w []float64, deltas []float64, sigma float64) {
	if sigma > 0 {
		for i, d := range deltas {
			r := d / sigma
			w[i] *= math.Exp(-r * r)
		}
		return
	}
	minAbs := math.Inf(1)
	for i, d := range deltas {
		if w[i] == 0 {
			continue
		}
		if a := math.Abs(d); a < minAbs {
			minAbs = a
		}
	}
	const eps = 1e-9
	for i, d := range deltas {
		if math.Abs(d) > minAbs+eps {
			w[i] = 0
		}
	}
}

// GridVolumetric grids one moment onto the full 3-D lattice. The result is
// z-major (iz*ny*nx + iy*nx + ix). Cells with no contributing point are
// NaN. An empty cloud yields an all-NaN field, not an error.
func (e *Engine) GridVolumetric(variable string) []float64 {
	nx, ny, nz := len(e.spec.X), len(e.spec.Y), len(e.spec.Z)
	out := make([]float64, nx*ny*nz)
	for i := range out {
		out[i] = math.NaN()
	}
	if e.cloud.Len() == 0 {
		return out
	}
	vals := e.cloud.Values[variable]
	if vals == nil {
		return out
	}

	allZero := e.sigmaX == 0 && e.sigmaY == 0 && e.sigmaZ == 0
	var nearest *kdtree.Tree
	if allZero {
		if nearest = e.validTree(vals); nearest == nil {
			return out
		}
	}

	// Columns are independent, so workers split the (z, y) row space into
	// contiguous chunks and never share output cells.
	nRows := nz * ny
	rowsPerWorker := (nRows + e.workers - 1) / e.workers

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if end > nRows {
			end = nRows
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			deltasX := make([]float64, 0, 64)
			deltasY := make([]float64, 0, 64)
			deltasZ := make([]float64, 0, 64)
			weights := make([]float64, 0, 64)
			wTerms := make([]float64, 0, 64)
			vTerms := make([]float64, 0, 64)
			for row := start; row < end; row++ {
				iz := row / ny
				iy := row % ny
				cz := e.spec.Z[iz]
				cy := e.spec.Y[iy]
				for ix := 0; ix < nx; ix++ {
					cx := e.spec.X[ix]

					if allZero {
						if got, _ := nearest.Nearest(samplePoint{x: cx, y: cy, z: cz}); got != nil {
							out[row*nx+ix] = vals[got.(samplePoint).idx]
						}
						continue
					}

					cand := e.neighbors(samplePoint{x: cx, y: cy, z: cz}, e.radius)
					if len(cand) == 0 {
						continue
					}

					deltasX = deltasX[:0]
					deltasY = deltasY[:0]
					deltasZ = deltasZ[:0]
					weights = weights[:0]
					for _, c := range cand {
						if math.IsNaN(vals[c]) {
							continue
						}
						deltasX = append(deltasX, e.cloud.X[c]-cx)
						deltasY = append(deltasY, e.cloud.Y[c]-cy)
						deltasZ = append(deltasZ, e.cloud.Z[c]-cz)
						weights = append(weights, 1)
					}
					if len(weights) == 0 {
						continue
					}
					axisWeights(weights, deltasX, e.sigmaX)
					axisWeights(weights, deltasY, e.sigmaY)
					axisWeights(weights, deltasZ, e.sigmaZ)

					wTerms = wTerms[:0]
					vTerms = vTerms[:0]
					j := 0
					for _, c := range cand {
						if math.IsNaN(vals[c]) {
							continue
						}
						if weights[j] != 0 {
							wTerms = append(wTerms, weights[j])
							vTerms = append(vTerms, weights[j]*vals[c])
						}
						j++
					}
					wSum := sortedSum(wTerms)
					if wSum >= weightFloor {
						out[row*nx+ix] = sortedSum(vTerms) / wSum
					}
				}
				if e.progress != nil && iy == ny-1 {
					e.reportProgress(iz+1, nz, fmt.Sprintf("gridded level z=%.0f m", cz))
				}
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// GridPseudoCAPPI grids one moment into a single horizontal layer. The
// horizontal weighting is identical to the volumetric mode; vertically,
// each column selects one sweep instead of blending. With targetHeight >= 0
// the chosen sweep is the one whose sampled altitude over the column is
// closest to that height; with a negative targetHeight the column takes the
// maximum value across sweeps, a pseudo constant-altitude product per
// column. The result is ny*nx values, NaN where no sweep contributes.
func (e *Engine) GridPseudoCAPPI(variable string, targetHeight float64) []float64 {
	nx, ny := len(e.spec.X), len(e.spec.Y)
	out := make([]float64, nx*ny)
	for i := range out {
		out[i] = math.NaN()
	}
	if e.cloud.Len() == 0 {
		return out
	}
	vals := e.cloud.Values[variable]
	if vals == nil {
		return out
	}

	nSweeps := 0
	for _, s := range e.cloud.SweepIdx {
		if s+1 > nSweeps {
			nSweeps = s + 1
		}
	}

	rowsPerWorker := (ny + e.workers - 1) / e.workers
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if end > ny {
			end = ny
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			deltasX := make([]float64, 0, 64)
			deltasY := make([]float64, 0, 64)
			weights := make([]float64, 0, 64)
			kept := make([]int, 0, 64)
			wTerms := make([][]float64, nSweeps)
			vTerms := make([][]float64, nSweeps)
			zTerms := make([][]float64, nSweeps)
			wSum := make([]float64, nSweeps)
			vSum := make([]float64, nSweeps)
			zSum := make([]float64, nSweeps)
			for iy := start; iy < end; iy++ {
				cy := e.spec.Y[iy]
				for ix := 0; ix < nx; ix++ {
					cx := e.spec.X[ix]
					cand := e.flatNeighbors(cx, cy)
					if len(cand) == 0 {
						continue
					}

					deltasX = deltasX[:0]
					deltasY = deltasY[:0]
					weights = weights[:0]
					kept = kept[:0]
					for _, c := range cand {
						if math.IsNaN(vals[c]) {
							continue
						}
						deltasX = append(deltasX, e.cloud.X[c]-cx)
						deltasY = append(deltasY, e.cloud.Y[c]-cy)
						weights = append(weights, 1)
						kept = append(kept, c)
					}
					if len(kept) == 0 {
						continue
					}
					axisWeights(weights, deltasX, e.sigmaX)
					axisWeights(weights, deltasY, e.sigmaY)

					for s := 0; s < nSweeps; s++ {
						wTerms[s] = wTerms[s][:0]
						vTerms[s] = vTerms[s][:0]
						zTerms[s] = zTerms[s][:0]
					}
					for j, c := range kept {
						if weights[j] == 0 {
							continue
						}
						s := e.cloud.SweepIdx[c]
						wTerms[s] = append(wTerms[s], weights[j])
						vTerms[s] = append(vTerms[s], weights[j]*vals[c])
						zTerms[s] = append(zTerms[s], weights[j]*e.cloud.Z[c])
					}
					for s := 0; s < nSweeps; s++ {
						wSum[s] = sortedSum(wTerms[s])
						vSum[s] = sortedSum(vTerms[s])
						zSum[s] = sortedSum(zTerms[s])
					}

					if targetHeight >= 0 {
						best := -1
						bestDiff := math.Inf(1)
						for s := 0; s < nSweeps; s++ {
							if wSum[s] < weightFloor {
								continue
							}
							diff := math.Abs(zSum[s]/wSum[s] - targetHeight)
							if diff < bestDiff {
								bestDiff = diff
								best = s
							}
						}
						if best >= 0 {
							out[iy*nx+ix] = vSum[best] / wSum[best]
						}
						continue
					}

					colMax := math.Inf(-1)
					found := false
					for s := 0; s < nSweeps; s++ {
						if wSum[s] < weightFloor {
							continue
						}
						if v := vSum[s] / wSum[s]; v > colMax {
							colMax = v
							found = true
						}
					}
					if found {
						out[iy*nx+ix] = colMax
					}
				}
			}
		}(start, end)
	}
	wg.Wait()
	return out
}
