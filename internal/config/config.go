// Package config holds the optional JSON run configuration. Fields omitted
// from the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfig mirrors the command line settings so repeated runs against the
// same terrain can share one file instead of a pile of flags.
type RunConfig struct {
	AlphaDegrees *float64 `json:"alpha_degrees,omitempty"`
	Workers      *int     `json:"workers,omitempty"`
	GridProj4    *string  `json:"grid_proj4,omitempty"`
}

// Load reads a RunConfig from a JSON file. The file must have a .json
// extension and stay under the size cap.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.AlphaDegrees != nil {
		if *c.AlphaDegrees <= 0 || *c.AlphaDegrees >= 90 {
			return fmt.Errorf("alpha_degrees must be in (0, 90), got %g", *c.AlphaDegrees)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetAlphaDegrees returns the alpha_degrees value or the default.
func (c *RunConfig) GetAlphaDegrees() float64 {
	if c.AlphaDegrees == nil {
		return 19 // classic alpha-angle default
	}
	return *c.AlphaDegrees
}

// GetWorkers returns the workers value or the default (0 = GOMAXPROCS).
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetGridProj4 returns the grid_proj4 value or an empty string when unset.
func (c *RunConfig) GetGridProj4() string {
	if c.GridProj4 == nil {
		return ""
	}
	return *c.GridProj4
}
