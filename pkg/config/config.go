// Package config provides configuration loading and management for radarx.
// It handles loading gridding options from YAML files and provides default
// values matching the conventional 100 km gridding setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"radarx/pkg/gridding"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Grid parameters define the target lattice in meters, radar relative.
	Grid struct {
		XLim  [2]float64 `yaml:"xLim"`
		YLim  [2]float64 `yaml:"yLim"`
		ZLim  [2]float64 `yaml:"zLim"`
		XStep float64    `yaml:"xStep"`
		YStep float64    `yaml:"yStep"`
		ZStep float64    `yaml:"zStep"`
	} `yaml:"grid"`

	// Smoothing parameters control the Barnes kernel decay per axis,
	// expressed in grid steps.
	Smoothing struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
		Z float64 `yaml:"z"`

		// CutoffFactor bounds the neighbor search radius in units of
		// the largest smoothing length. Zero keeps the engine default.
		CutoffFactor float64 `yaml:"cutoffFactor"`
	} `yaml:"smoothing"`

	// Product selects what kind of gridded product to build.
	Product struct {
		// DataVars lists the moment names to grid.
		DataVars []string `yaml:"dataVars"`

		// PseudoCappi selects the cheap per-column mode instead of
		// full volumetric gridding.
		PseudoCappi bool `yaml:"pseudoCappi"`

		// TargetHeight is the CAPPI altitude in meters; negative means
		// column maximum instead of a fixed height.
		TargetHeight float64 `yaml:"targetHeight"`
	} `yaml:"product"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel
		// interpolation.
		NumCores int `yaml:"numCores"`

		// Verbose controls progress reporting on the command line.
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Grid.XLim = [2]float64{-100e3, 100e3}
	cfg.Grid.YLim = [2]float64{-100e3, 100e3}
	cfg.Grid.ZLim = [2]float64{0, 10e3}
	cfg.Grid.XStep = 1000
	cfg.Grid.YStep = 1000
	cfg.Grid.ZStep = 250

	cfg.Smoothing.X = 0.2
	cfg.Smoothing.Y = 0.2
	cfg.Smoothing.Z = 1.0
	cfg.Smoothing.CutoffFactor = 4.0

	cfg.Product.DataVars = []string{"DBZ"}
	cfg.Product.PseudoCappi = true
	cfg.Product.TargetHeight = -1

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Options converts the configuration into the gridding call options.
func (c *Config) Options() gridding.Options {
	return gridding.Options{
		DataVars:     c.Product.DataVars,
		PseudoCAPPI:  c.Product.PseudoCappi,
		TargetHeight: c.Product.TargetHeight,
		XLim:         c.Grid.XLim,
		YLim:         c.Grid.YLim,
		ZLim:         c.Grid.ZLim,
		XStep:        c.Grid.XStep,
		YStep:        c.Grid.YStep,
		ZStep:        c.Grid.ZStep,
		XSmth:        c.Smoothing.X,
		YSmth:        c.Smoothing.Y,
		ZSmth:        c.Smoothing.Z,
		CutoffFactor: c.Smoothing.CutoffFactor,
		NumCores:     c.Processing.NumCores,
	}
}
