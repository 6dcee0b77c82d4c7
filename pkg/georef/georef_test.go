package georef

import (
	"errors"
	"math"
	"testing"

	"radarx/internal/models"
)

func TestEarthRadiusAtReferenceLatitudes(t *testing.T) {
	// At the equator the geocentric radius equals the semi-major axis,
	// at the poles the semi-minor axis.
	if r := EarthRadius(0); math.Abs(r-6378137.0) > 1e-3 {
		t.Errorf("EarthRadius(0) = %f, want semi-major axis", r)
	}
	if r := EarthRadius(90); math.Abs(r-6356752.314140) > 1e-3 {
		t.Errorf("EarthRadius(90) = %f, want semi-minor axis", r)
	}
	rMid := EarthRadius(45)
	if rMid >= 6378137.0 || rMid <= 6356752.314140 {
		t.Errorf("EarthRadius(45) = %f, want value between the semi-axes", rMid)
	}
}

func TestAntennaToCartesianVerticalBeam(t *testing.T) {
	// A gate straight up should sit (almost) directly over the antenna.
	x, y, z := AntennaToCartesian(10000, 0, 90, 6371000)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("vertical beam displaced horizontally: x=%g y=%g", x, y)
	}
	if math.Abs(z-10000) > 1 {
		t.Errorf("vertical beam height = %f, want ~10000", z)
	}
}

func TestAntennaToCartesianAzimuthQuadrants(t *testing.T) {
	r := 50000.0
	earthRadius := 6371000.0

	// Azimuth 0 is north (+y), azimuth 90 east (+x).
	xN, yN, _ := AntennaToCartesian(r, 0, 0.5, earthRadius)
	if math.Abs(xN) > 1e-6 || yN <= 0 {
		t.Errorf("azimuth 0: x=%g y=%g, want x~0, y>0", xN, yN)
	}
	xE, yE, _ := AntennaToCartesian(r, 90, 0.5, earthRadius)
	if xE <= 0 || math.Abs(yE) > 1e-6 {
		t.Errorf("azimuth 90: x=%g y=%g, want x>0, y~0", xE, yE)
	}

	// Horizontal distance is symmetric in azimuth.
	if math.Abs(math.Hypot(xN, yN)-math.Hypot(xE, yE)) > 1e-6 {
		t.Errorf("horizontal distance differs across azimuths: %f vs %f",
			math.Hypot(xN, yN), math.Hypot(xE, yE))
	}

	// Beam height grows with range even at low elevation.
	_, _, zNear := AntennaToCartesian(10000, 0, 0.5, earthRadius)
	_, _, zFar := AntennaToCartesian(150000, 0, 0.5, earthRadius)
	if zFar <= zNear {
		t.Errorf("beam height should grow with range: near=%f far=%f", zNear, zFar)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	sites := []struct{ lon, lat float64 }{
		{77.1, 28.6},   // Delhi
		{-97.5, 35.3},  // Oklahoma
		{0, 0},         // equator
		{170.5, -45.9}, // near the antimeridian, southern hemisphere
	}
	offsets := []struct{ x, y float64 }{
		{0, 0}, {1000, 0}, {0, 1000}, {-250000, 125000},
		{499000, -499000}, {-1, 1},
	}
	for _, s := range sites {
		earthRadius := EarthRadius(s.lat)
		for _, o := range offsets {
			lon, lat := CartesianToGeographic(o.x, o.y, s.lon, s.lat, earthRadius)
			x2, y2 := GeographicToCartesian(lon, lat, s.lon, s.lat, earthRadius)
			lon2, lat2 := CartesianToGeographic(x2, y2, s.lon, s.lat, earthRadius)
			if math.Abs(lon2-lon) > 1e-6 || math.Abs(lat2-lat) > 1e-6 {
				t.Errorf("site(%f,%f) offset(%f,%f): geographic round trip moved (%g,%g)->(%g,%g)",
					s.lon, s.lat, o.x, o.y, lon, lat, lon2, lat2)
			}
			// The projected point must also return to the original offset.
			if math.Abs(x2-o.x) > 0.5 || math.Abs(y2-o.y) > 0.5 {
				t.Errorf("site(%f,%f): offset (%f,%f) round-tripped to (%f,%f)",
					s.lon, s.lat, o.x, o.y, x2, y2)
			}
		}
	}
}

func TestCartesianToGeographicAtOrigin(t *testing.T) {
	lon, lat := CartesianToGeographic(0, 0, 77.1, 28.6, 6371000)
	if lon != 77.1 || lat != 28.6 {
		t.Errorf("origin mapped to (%f,%f), want site coordinates exactly", lon, lat)
	}
}

func TestGeoreference(t *testing.T) {
	sweep := &models.Sweep{
		Elevation: 0.5,
		Azimuths:  []float64{0, 90, 180, 270},
		Ranges:    []float64{1000, 2000, 3000},
		Moments: map[string][]float64{
			"DBZ": make([]float64, 12),
		},
		Site: models.Site{Lat: 28.6, Lon: 77.1, Alt: 200},
	}
	if err := Georeference(sweep); err != nil {
		t.Fatalf("Georeference failed: %v", err)
	}
	if len(sweep.X) != 12 || len(sweep.Y) != 12 || len(sweep.Z) != 12 {
		t.Fatalf("coordinate arrays have wrong length: %d %d %d",
			len(sweep.X), len(sweep.Y), len(sweep.Z))
	}
	// Ray 0 points north, ray 2 south; same gate index, mirrored y.
	if math.Abs(sweep.Y[0]+sweep.Y[2*3]) > 1e-6 {
		t.Errorf("north/south rays not mirrored: %f vs %f", sweep.Y[0], sweep.Y[2*3])
	}
	// Site altitude is folded into z.
	if sweep.Z[0] < 200 {
		t.Errorf("z should include the 200 m site altitude, got %f", sweep.Z[0])
	}
}

func TestGeoreferenceDimensionMismatch(t *testing.T) {
	sweep := &models.Sweep{
		Elevation: 0.5,
		Azimuths:  []float64{0, 90},
		Ranges:    []float64{1000, 2000},
		Moments: map[string][]float64{
			"DBZ": make([]float64, 3), // wrong: should be 4
		},
	}
	err := Georeference(sweep)
	if err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
	var dim *models.DimensionMismatchError
	if !errors.As(err, &dim) {
		t.Fatalf("expected DimensionMismatchError, got %T: %v", err, err)
	}
	if dim.Want != 4 || dim.Got != 3 {
		t.Errorf("mismatch reported want=%d got=%d", dim.Want, dim.Got)
	}
}
