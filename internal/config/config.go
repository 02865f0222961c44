// Package config loads conversion settings from an optional JSON file
// and reconciles them with command line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`
	Version   string `json:"source_version"`
	Workers   int    `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Version   string
	Workers   int
}

// Resolve fills in empty fields from flags, then defaults. CLI flags
// take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Version != "" {
		c.Version = flags.Version
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" && c.InputDir != "" {
		c.OutputDir = strings.TrimRight(c.InputDir, `/\`) + "_conv"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}
