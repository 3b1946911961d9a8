// Package config provides configuration loading and management for nucleolseg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"nucleolseg/internal/models"
	"nucleolseg/pkg/segmentation"
	"nucleolseg/pkg/toolkit"
)

// ErrInvalidConfiguration is returned by Validate for out-of-range values
var ErrInvalidConfiguration = models.ErrInvalidConfiguration

// Config represents the application configuration loaded from YAML
type Config struct {
	// Nuclear segmentation parameters (DAPI channel)
	Nuclear struct {
		// RollingBallRadius is the half-size of the background estimation window
		RollingBallRadius int `yaml:"rollballrad"`

		// SmoothingStdDev is the Gaussian pre-smoothing standard deviation
		SmoothingStdDev float64 `yaml:"smstdev"`

		// Threshold is the fraction of the leveled maximum a pixel must exceed
		Threshold float64 `yaml:"nucthresh"`

		// MinSize and MaxSize bound the nuclear area in pixels
		MinSize int `yaml:"minsize"`
		MaxSize int `yaml:"maxsize"`

		// Border is the width of the edge zone whose nuclei are discarded
		Border int `yaml:"border"`

		// FillHoles fills interior holes before the final labeling
		FillHoles bool `yaml:"fillholes"`
	} `yaml:"nuclear"`

	// Nucleolar segmentation parameters
	Nucleolar struct {
		RollingBallRadius int `yaml:"rollballrad"`

		// SmoothingStdDev is applied before leveling
		SmoothingStdDev float64 `yaml:"smstdev"`

		// PostSmoothingStdDev is applied after leveling
		PostSmoothingStdDev float64 `yaml:"postsmstdev"`

		// Threshold is the fraction of each nucleus' intensity range
		Threshold float64 `yaml:"nuclthresh"`

		MinSize int `yaml:"minsize"`

		// MaxSize of zero or less disables the upper bound
		MaxSize int `yaml:"maxsize"`

		FillHoles bool `yaml:"fillholes"`
	} `yaml:"nucleolar"`

	// Labeling parameters
	Labeling struct {
		// Connectivity is 4 or 8
		Connectivity int `yaml:"connectivity"`
	} `yaml:"labeling"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary stage images are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default nuclear parameters
	cfg.Nuclear.RollingBallRadius = 100
	cfg.Nuclear.SmoothingStdDev = 5
	cfg.Nuclear.Threshold = 0.1
	cfg.Nuclear.MinSize = 1000
	cfg.Nuclear.MaxSize = 4000
	cfg.Nuclear.Border = 2
	cfg.Nuclear.FillHoles = true

	// Set default nucleolar parameters
	cfg.Nucleolar.RollingBallRadius = 15
	cfg.Nucleolar.SmoothingStdDev = 1.0
	cfg.Nucleolar.PostSmoothingStdDev = 0.7
	cfg.Nucleolar.Threshold = 0.4
	cfg.Nucleolar.MinSize = 4
	cfg.Nucleolar.MaxSize = -1
	cfg.Nucleolar.FillHoles = false

	cfg.Labeling.Connectivity = 8

	// Set default output parameters
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = false

	return cfg
}

// NuclearParams returns the nuclear section as segmentation parameters
func (c *Config) NuclearParams() segmentation.NuclearParams {
	return segmentation.NuclearParams{
		RollingBallRadius: c.Nuclear.RollingBallRadius,
		SmoothingStdDev:   c.Nuclear.SmoothingStdDev,
		Threshold:         c.Nuclear.Threshold,
		MinSize:           c.Nuclear.MinSize,
		MaxSize:           c.Nuclear.MaxSize,
		Border:            c.Nuclear.Border,
		FillHoles:         c.Nuclear.FillHoles,
	}
}

// NucleolarParams returns the nucleolar section as segmentation parameters
func (c *Config) NucleolarParams() segmentation.NucleolarParams {
	return segmentation.NucleolarParams{
		RollingBallRadius:   c.Nucleolar.RollingBallRadius,
		PreSmoothingStdDev:  c.Nucleolar.SmoothingStdDev,
		PostSmoothingStdDev: c.Nucleolar.PostSmoothingStdDev,
		Threshold:           c.Nucleolar.Threshold,
		MinSize:             c.Nucleolar.MinSize,
		MaxSize:             c.Nucleolar.MaxSize,
		FillHoles:           c.Nucleolar.FillHoles,
	}
}

// Connectivity returns the labeling connectivity
func (c *Config) Connectivity() toolkit.Connectivity {
	return toolkit.Connectivity(c.Labeling.Connectivity)
}

// Validate checks every section and returns an error wrapping
// ErrInvalidConfiguration for the first offending value
func (c *Config) Validate() error {
	if err := c.NuclearParams().Validate(); err != nil {
		return fmt.Errorf("nuclear: %w", err)
	}
	if err := c.NucleolarParams().Validate(); err != nil {
		return fmt.Errorf("nucleolar: %w", err)
	}
	if err := c.Connectivity().Validate(); err != nil {
		return fmt.Errorf("labeling: %w", err)
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

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Keys missing from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
