// Package config provides configuration loading and management for segtools.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"segtools/pkg/contour"
	"segtools/pkg/grower"
	"segtools/pkg/smoothing"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Region growing parameters
	Grower struct {
		// RelativeBounds interprets Lower/Upper as offsets from the seed average
		RelativeBounds bool `yaml:"relativeBounds"`

		// Lower and Upper bound the accepted intensity window
		Lower float64 `yaml:"lower"`
		Upper float64 `yaml:"upper"`

		// MaxIterations limits the number of growing waves, 0 for unbounded
		MaxIterations int `yaml:"maxIterations"`

		// Smooth runs the edge preserving filter on the image before growing
		Smooth bool `yaml:"smooth"`

		// EdgeThreshold is the normalized edge strength the filter keeps sharp
		EdgeThreshold float64 `yaml:"edgeThreshold"`
	} `yaml:"grower"`

	// Contour extraction parameters
	Contour struct {
		// Connectivity is 4 or 8
		Connectivity int `yaml:"connectivity"`
	} `yaml:"contour"`

	// Line correction parameters
	Corrector struct {
		// FillValue is the label written for added pixels
		FillValue uint8 `yaml:"fillValue"`
	} `yaml:"corrector"`

	// Slice interpolation parameters
	Interpolation struct {
		// NumCores specifies how many CPU cores to use for filling gaps
		NumCores int `yaml:"numCores"`

		// SliceGap represents the physical distance between consecutive slices in mm
		SliceGap float64 `yaml:"sliceGap"`
	} `yaml:"interpolation"`

	// Undo history
	Undo struct {
		// Levels is the number of snapshots kept
		Levels int `yaml:"levels"`
	} `yaml:"undo"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults writes overlays next to the results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// LogLevel is one of debug, info, warning, error
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Grower.RelativeBounds = true
	cfg.Grower.Lower = 20
	cfg.Grower.Upper = 20
	cfg.Grower.MaxIterations = 0
	cfg.Grower.Smooth = false
	cfg.Grower.EdgeThreshold = smoothing.DefaultEdgeThreshold

	cfg.Contour.Connectivity = 4

	cfg.Corrector.FillValue = 1

	cfg.Interpolation.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Interpolation.SliceGap = 1.0

	cfg.Undo.Levels = 10

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.LogLevel = "info"

	return cfg
}

// GrowerParams returns the region growing section as grower parameters.
func (c *Config) GrowerParams() grower.Params {
	return grower.Params{
		RelativeBounds: c.Grower.RelativeBounds,
		Lower:          c.Grower.Lower,
		Upper:          c.Grower.Upper,
		MaxIterations:  c.Grower.MaxIterations,
	}
}

// Connectivity returns the configured contour neighbourhood.
func (c *Config) Connectivity() contour.Connectivity {
	if c.Contour.Connectivity == 8 {
		return contour.EightConnected
	}
	return contour.FourConnected
}

// Validate checks the values a YAML file may have broken.
func (c *Config) Validate() error {
	if c.Contour.Connectivity != 4 && c.Contour.Connectivity != 8 {
		return fmt.Errorf("contour connectivity must be 4 or 8, got %d", c.Contour.Connectivity)
	}
	if c.Grower.MaxIterations < 0 {
		return fmt.Errorf("grower maxIterations must not be negative, got %d", c.Grower.MaxIterations)
	}
	if c.Grower.EdgeThreshold < 0 || c.Grower.EdgeThreshold > 1 {
		return fmt.Errorf("grower edgeThreshold must be within [0,1], got %g", c.Grower.EdgeThreshold)
	}
	if c.Interpolation.SliceGap <= 0 {
		return fmt.Errorf("interpolation sliceGap must be positive, got %g", c.Interpolation.SliceGap)
	}
	if c.Interpolation.NumCores < 1 {
		c.Interpolation.NumCores = 1
	}
	if c.Undo.Levels < 1 {
		c.Undo.Levels = 1
	}
	if c.Corrector.FillValue == 0 {
		return fmt.Errorf("corrector fillValue must be nonzero")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
