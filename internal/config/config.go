// Package config handles loading, validation, and merging of run-all configuration files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is looked up in the working directory when no path is given
const DefaultFileName = "run-all.toml"

// Config represents the complete run-all configuration
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	// Package config overrides, forwarded to npm as --<package>:<key>=<value>
	PackageConfig map[string]map[string]string `toml:"packageConfig"`
}

// DefaultsConfig holds defaults for command-line options
type DefaultsConfig struct {
	// Maximum number of tasks run at once in parallel groups
	MaxParallel int `toml:"maxParallel" doc:"Maximum number of tasks run at once in parallel groups (0 = no limit)"`
	// Keep running other tasks after one fails
	ContinueOnError bool `toml:"continueOnError" doc:"Keep running other tasks after one fails"`
	// Prefix every output line with the task name
	PrintLabel bool `toml:"printLabel" doc:"Prefix every output line with the task name"`
	// Print a header before each task
	PrintName bool `toml:"printName" doc:"Print a header with the task name before each task starts"`
	// Buffer each task's output until it finishes
	AggregateOutput bool `toml:"aggregateOutput" doc:"Buffer the output of each parallel task until it finishes"`
	// Stop all parallel tasks when one succeeds
	Race bool `toml:"race" doc:"Abort the other parallel tasks as soon as one exits with code 0"`
	// Pass --silent to the script runner
	Silent bool `toml:"silent" doc:"Pass --silent to the script runner"`
	// Script runner used to run tasks
	NpmPath string `toml:"npmPath" doc:"Script runner used to run tasks (defaults to $npm_execpath, then npm)"`
	// Color output: auto, always, or never
	Color string `toml:"color" doc:"Color output: auto, always, or never" enum:"auto,always,never"`
}

// LoadConfig loads configuration from a TOML file.
// With an empty path, run-all.toml in dir is used if it exists; a missing
// default file yields (nil, nil). An explicit path must exist.
func LoadConfig(path, dir string) (*Config, error) {
	explicitPath := path != ""
	if !explicitPath {
		path = filepath.Join(dir, DefaultFileName)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Check for unknown fields
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	return &cfg, nil
}

// GetDefaults returns the default configuration
func GetDefaults() Config {
	return Config{
		Defaults: DefaultsConfig{
			Color: "auto",
		},
		PackageConfig: make(map[string]map[string]string),
	}
}

// MergeWithDefaults merges loaded config with defaults
func MergeWithDefaults(cfg *Config) Config {
	defaults := GetDefaults()

	if cfg == nil {
		return defaults
	}

	if cfg.Defaults.Color == "" {
		cfg.Defaults.Color = defaults.Defaults.Color
	}
	if cfg.PackageConfig == nil {
		cfg.PackageConfig = defaults.PackageConfig
	}

	return *cfg
}
