package grid

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"radarx/internal/models"
	"radarx/pkg/georef"
)

// Assemble packages interpolated fields into a GriddedField: it attaches the
// axis coordinates, derives geographic coordinates for every horizontal cell
// center, and copies the volume metadata unmodified. zAxis is the vertical
// axis of the product, which for pseudo-CAPPI products is a single synthetic
// layer rather than the spec's full z axis. No field values are touched.
func Assemble(fields map[string][]float64, spec *Spec, zAxis []float64, product string, vol *models.Volume) *models.GriddedField {
	nx, ny := len(spec.X), len(spec.Y)

	// Geographic labels are computed once per (y, x) cell and shared by
	// every vertical level.
	lons := make([]float64, ny*nx)
	lats := make([]float64, ny*nx)
	for iy, y := range spec.Y {
		for ix, x := range spec.X {
			lon, lat := georef.CartesianToGeographic(x, y, spec.Origin.Lon, spec.Origin.Lat, spec.EarthRadius)
			lons[iy*nx+ix] = lon
			lats[iy*nx+ix] = lat
		}
	}

	out := &models.GriddedField{
		Data:    fields,
		X:       spec.X,
		Y:       spec.Y,
		Z:       zAxis,
		Lons:    lons,
		Lats:    lats,
		Time:    meanTime(vol),
		Site:    vol.Site,
		Product: product,
	}
	if vol.Attrs != nil {
		out.Attrs = make(map[string]string, len(vol.Attrs))
		for k, v := range vol.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// meanTime returns the mean of the sweep start times, the nominal
// acquisition time of the product. Volumes without per-sweep times fall
// back to the volume start time.
func meanTime(vol *models.Volume) time.Time {
	secs := make([]float64, 0, len(vol.Sweeps))
	for i := range vol.Sweeps {
		ts := vol.Sweeps[i].Time
		if ts.IsZero() {
			continue
		}
		secs = append(secs, float64(ts.UnixNano())/1e9)
	}
	if len(secs) == 0 {
		return vol.Start
	}
	mean := stat.Mean(secs, nil)
	return time.Unix(0, int64(mean*1e9)).UTC()
}
