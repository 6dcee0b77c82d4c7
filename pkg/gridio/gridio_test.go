package gridio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radarx/internal/models"
)

func sampleVolume() *models.Volume {
	start := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	return &models.Volume{
		Site:  models.Site{Lat: 28.6, Lon: 77.1, Alt: 200, Name: "TEST"},
		Start: start,
		End:   start.Add(4 * time.Minute),
		Attrs: map[string]string{"instrument_name": "TEST"},
		Sweeps: []models.Sweep{
			{
				Elevation: 0.5,
				Azimuths:  []float64{0, 90, 180, 270},
				Ranges:    []float64{500, 1000},
				Moments: map[string][]float64{
					"DBZ": {10, 20, math.NaN(), 40, 50, 60, 70, 80},
				},
				Time: start,
			},
		},
	}
}

func sampleField() *models.GriddedField {
	return &models.GriddedField{
		Data:    map[string][]float64{"DBZ": {1, math.NaN(), 3, 4}},
		X:       []float64{-500, 500},
		Y:       []float64{-500, 500},
		Z:       []float64{1000},
		Lons:    []float64{77.09, 77.11, 77.09, 77.11},
		Lats:    []float64{28.59, 28.59, 28.61, 28.61},
		Time:    time.Date(2024, 6, 1, 6, 2, 0, 0, time.UTC),
		Site:    models.Site{Lat: 28.6, Lon: 77.1, Alt: 200, Name: "TEST"},
		Product: "cappi",
		Attrs:   map[string]string{"instrument_name": "TEST"},
	}
}

func TestVolumeRoundTrip(t *testing.T) {
	for _, name := range []string{"vol.msgpack", "vol.msgpack.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			vol := sampleVolume()

			require.NoError(t, WriteVolume(vol, path))
			got, err := ReadVolume(path)
			require.NoError(t, err)

			assert.Equal(t, vol.Site, got.Site)
			assert.True(t, got.Start.Equal(vol.Start))
			assert.Equal(t, vol.Attrs, got.Attrs)
			require.Len(t, got.Sweeps, 1)
			assert.Equal(t, vol.Sweeps[0].Azimuths, got.Sweeps[0].Azimuths)
			assert.Equal(t, vol.Sweeps[0].Ranges, got.Sweeps[0].Ranges)

			// NaN gates survive the trip as NaN, not as numbers.
			dbz := got.Sweeps[0].Moments["DBZ"]
			require.Len(t, dbz, 8)
			assert.True(t, math.IsNaN(dbz[2]))
			assert.Equal(t, 40.0, dbz[3])
		})
	}
}

func TestFieldRoundTrip(t *testing.T) {
	for _, name := range []string{"field.msgpack", "field.msgpack.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			field := sampleField()

			require.NoError(t, WriteField(field, path))
			got, err := ReadField(path)
			require.NoError(t, err)

			assert.Equal(t, field.X, got.X)
			assert.Equal(t, field.Y, got.Y)
			assert.Equal(t, field.Z, got.Z)
			assert.Equal(t, field.Lons, got.Lons)
			assert.Equal(t, field.Product, got.Product)
			assert.Equal(t, field.Site, got.Site)
			assert.True(t, got.Time.Equal(field.Time))

			dbz := got.Data["DBZ"]
			require.Len(t, dbz, 4)
			assert.Equal(t, 1.0, dbz[0])
			assert.True(t, math.IsNaN(dbz[1]))
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadVolume(filepath.Join(t.TempDir(), "missing.msgpack"))
	assert.Error(t, err)

	_, err = ReadField(filepath.Join(t.TempDir(), "missing.msgpack"))
	assert.Error(t, err)
}

func TestCompressionActuallyShrinks(t *testing.T) {
	// A large uniform field should compress well; this doubles as a
	// check that the .zst suffix actually triggers compression.
	field := sampleField()
	n := 200 * 200
	data := make([]float64, n)
	for i := range data {
		data[i] = 35.5
	}
	field.Data["DBZ"] = data

	dir := t.TempDir()
	plain := filepath.Join(dir, "f.msgpack")
	packed := filepath.Join(dir, "f.msgpack.zst")
	require.NoError(t, WriteField(field, plain))
	require.NoError(t, WriteField(field, packed))

	plainInfo, err := os.Stat(plain)
	require.NoError(t, err)
	packedInfo, err := os.Stat(packed)
	require.NoError(t, err)
	assert.Less(t, packedInfo.Size(), plainInfo.Size()/4)
}

func TestWriteArtifactEncodeErrorOnCompressedPath(t *testing.T) {
	// A value msgpack cannot encode must surface as an error, also on the
	// compressed path where the zstd encoder sits between codec and file.
	err := writeArtifact(filepath.Join(t.TempDir(), "bad.msgpack.zst"), make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding")
}
