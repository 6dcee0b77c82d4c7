// Package gridding is the top-level entry point of the gridding engine: it
// takes an in-memory radar volume, georeferences and flattens it, runs the
// Barnes interpolation for every requested moment, and assembles the result
// into a labeled gridded product.
//
// GridRadar is stateless: everything it needs arrives through its
// parameters and nothing survives the call except the returned field.
package gridding

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"radarx/internal/models"
	"radarx/pkg/grid"
	"radarx/pkg/interpolation"
)

// Options is the configuration surface of a gridding call. Limits and steps
// are meters, radar relative. Smoothing factors are in grid steps per axis.
type Options struct {
	// DataVars lists the moment names to grid. Each is gridded
	// independently on one shared grid.
	DataVars []string

	// PseudoCAPPI selects the cheap column mode instead of full
	// volumetric gridding. Never inferred; the caller chooses.
	PseudoCAPPI bool

	// TargetHeight is the nominal CAPPI altitude in meters for
	// pseudo-CAPPI mode. Negative means no explicit height: each column
	// takes its maximum across sweeps instead.
	TargetHeight float64

	XLim, YLim, ZLim    [2]float64
	XStep, YStep, ZStep float64

	XSmth, YSmth, ZSmth float64

	// CutoffFactor bounds the neighbor search radius in units of the
	// largest smoothing length. Zero uses the engine default.
	CutoffFactor float64

	// NumCores limits the parallelism of the interpolation. Zero or
	// negative uses all available CPUs.
	NumCores int

	// Progress, when set, receives stage and level completion reports.
	// It may be invoked concurrently from interpolation workers.
	Progress interpolation.ProgressCallback
}

// DefaultOptions mirrors the conventional 100 km / 10 km gridding setup:
// 1 km horizontal and 250 m vertical resolution with light horizontal and
// strong vertical smoothing, pseudo-CAPPI enabled.
func DefaultOptions() Options {
	return Options{
		DataVars:     []string{"DBZ"},
		PseudoCAPPI:  true,
		TargetHeight: -1,
		XLim:         [2]float64{-100e3, 100e3},
		YLim:         [2]float64{-100e3, 100e3},
		ZLim:         [2]float64{0, 10e3},
		XStep:        1000,
		YStep:        1000,
		ZStep:        250,
		XSmth:        0.2,
		YSmth:        0.2,
		ZSmth:        1.0,
	}
}

// GridRadar grids a volume according to opts and returns the assembled
// product. Configuration problems (malformed axis limits, negative
// smoothing) fail fast before any interpolation work; data-quality problems
// never fail, they degrade to no-data cells.
func GridRadar(vol *models.Volume, opts Options) (*models.GriddedField, error) {
	if len(opts.DataVars) == 0 {
		return nil, fmt.Errorf("no data variables requested")
	}

	spec, err := grid.NewSpec(vol.Site, opts.XLim, opts.XStep, opts.YLim, opts.YStep, opts.ZLim, opts.ZStep)
	if err != nil {
		return nil, err
	}

	report := func(done, total int, msg string) {
		if opts.Progress != nil {
			opts.Progress(done, total, msg)
		}
	}

	report(0, 0, fmt.Sprintf("flattening %d sweeps", len(vol.Sweeps)))
	cloud, err := grid.MergeVolume(vol, opts.DataVars)
	if err != nil {
		return nil, err
	}
	report(0, 0, fmt.Sprintf("merged point cloud holds %d samples", cloud.Len()))

	engine, err := interpolation.NewEngine(cloud, spec, interpolation.SmoothingParams{
		SX: opts.XSmth, SY: opts.YSmth, SZ: opts.ZSmth,
		CutoffFactor: opts.CutoffFactor,
	})
	if err != nil {
		return nil, err
	}
	cores := opts.NumCores
	if cores < 1 {
		cores = runtime.NumCPU()
	}
	engine.SetWorkers(cores)
	engine.SetProgressCallback(opts.Progress)

	fields := make(map[string][]float64, len(opts.DataVars))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(cores)
	for _, v := range opts.DataVars {
		v := v
		g.Go(func() error {
			var field []float64
			if opts.PseudoCAPPI {
				field = engine.GridPseudoCAPPI(v, opts.TargetHeight)
			} else {
				field = engine.GridVolumetric(v)
			}
			mu.Lock()
			fields[v] = field
			mu.Unlock()
			report(0, 0, fmt.Sprintf("gridded %s", v))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zAxis := spec.Z
	product := "volumetric"
	if opts.PseudoCAPPI {
		if opts.TargetHeight >= 0 {
			zAxis = []float64{opts.TargetHeight}
			product = "cappi"
		} else {
			zAxis = []float64{0}
			product = "maxcappi"
		}
	}
	return grid.Assemble(fields, spec, zAxis, product, vol), nil
}
