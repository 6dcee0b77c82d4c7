// Package gridio reads and writes radar volumes and gridded products as
// self-describing msgpack artifacts. Axes, coordinates and metadata travel
// with the data, so a consumer needs nothing but the file. Paths ending in
// .zst are transparently zstd-compressed.
//
// This is a byte-level interchange codec for the surrounding tooling, not a
// storage layout: upstream ingest writes volumes, downstream rendering reads
// fields.
package gridio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"radarx/internal/models"
)

const zstSuffix = ".zst"

// WriteVolume writes a radar volume artifact to path.
func WriteVolume(vol *models.Volume, path string) error {
	return writeArtifact(path, vol)
}

// ReadVolume reads a radar volume artifact from path.
func ReadVolume(path string) (*models.Volume, error) {
	var vol models.Volume
	if err := readArtifact(path, &vol); err != nil {
		return nil, err
	}
	return &vol, nil
}

// WriteField writes a gridded product artifact to path.
func WriteField(field *models.GriddedField, path string) error {
	return writeArtifact(path, field)
}

// ReadField reads a gridded product artifact from path.
func ReadField(path string) (*models.GriddedField, error) {
	var field models.GriddedField
	if err := readArtifact(path, &field); err != nil {
		return nil, err
	}
	return &field, nil
}

func writeArtifact(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if strings.HasSuffix(path, zstSuffix) {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("error creating zstd writer: %w", err)
		}
		w = zw
	}

	if err := msgpack.NewEncoder(w).Encode(v); err != nil {
		if zw != nil {
			zw.Close()
		}
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("error finalizing %s: %w", path, err)
		}
	}
	return nil
}

func readArtifact(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, zstSuffix) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("error creating zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	if err := msgpack.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}
