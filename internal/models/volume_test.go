package models

import (
	"strings"
	"testing"
)

func TestSweepValidate(t *testing.T) {
	s := Sweep{
		Azimuths: []float64{0, 90, 180},
		Ranges:   []float64{500, 1000},
		Moments: map[string][]float64{
			"DBZ": make([]float64, 6),
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid sweep rejected: %v", err)
	}
	if s.NumGates() != 6 {
		t.Errorf("NumGates = %d, want 6", s.NumGates())
	}

	s.Moments["VEL"] = make([]float64, 5)
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error for short moment array")
	}
	dim, ok := err.(*DimensionMismatchError)
	if !ok {
		t.Fatalf("expected DimensionMismatchError, got %T", err)
	}
	if dim.Want != 6 || dim.Got != 5 {
		t.Errorf("error reports want=%d got=%d", dim.Want, dim.Got)
	}
	if !strings.Contains(dim.Error(), "VEL") {
		t.Errorf("error message %q does not name the moment", dim.Error())
	}
}

func TestSweepValidateCoordinates(t *testing.T) {
	s := Sweep{
		Azimuths: []float64{0, 180},
		Ranges:   []float64{500},
		Moments:  map[string][]float64{"DBZ": make([]float64, 2)},
		X:        make([]float64, 2),
		Y:        make([]float64, 2),
		Z:        make([]float64, 1), // wrong
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for short coordinate array")
	}
}
