package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// Err returns the first error, or nil if the config is valid
func (r *ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

func (r *ValidationResult) fail(field, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateConfigFile parses and validates the config at path. Parse errors and
// unknown fields are reported in the result; only an unreadable file is an error.
func ValidateConfigFile(path string) (*ValidationResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		result := ValidateConfig(nil)
		result.fail("", "Invalid TOML: %v", err)
		return result, nil
	}

	result := ValidateConfig(&cfg)
	for _, key := range metadata.Undecoded() {
		result.fail(key.String(), "Unknown configuration field")
	}
	return result, nil
}

// ValidateConfig validates an already-loaded config
func ValidateConfig(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if cfg == nil {
		return result
	}

	validateDefaults(&cfg.Defaults, result)
	validatePackageConfig(cfg.PackageConfig, result)
	return result
}

// validateDefaults validates the defaults section
func validateDefaults(defaults *DefaultsConfig, result *ValidationResult) {
	if defaults.MaxParallel < 0 {
		result.fail("defaults.maxParallel", "Max parallel must be non-negative")
	}

	if defaults.Color != "" {
		validModes := []string{"auto", "always", "never"}
		if !slices.Contains(validModes, defaults.Color) {
			result.fail("defaults.color", "Invalid color mode '%s'. Valid options: %s", defaults.Color, strings.Join(validModes, ", "))
		}
	}

	// Parallel-only settings are dropped for sequential groups, so only warn
	if defaults.MaxParallel == 1 && defaults.Race {
		result.warn("defaults.race", "race has no effect when maxParallel is 1")
	}
}

// validatePackageConfig checks that overrides can be written as --pkg:key=value
func validatePackageConfig(pkgConfig map[string]map[string]string, result *ValidationResult) {
	for pkg, values := range pkgConfig {
		if strings.ContainsAny(pkg, ":= ") || pkg == "" {
			result.fail("packageConfig."+pkg, "Invalid package name '%s'", pkg)
		}
		for key := range values {
			if strings.ContainsAny(key, "= ") || key == "" {
				result.fail("packageConfig."+pkg+"."+key, "Invalid config key '%s'", key)
			}
		}
	}
}

// PrintValidationResult prints the validation result in a human-readable format
func PrintValidationResult(w io.Writer, path string, result *ValidationResult) {
	if result.Valid && len(result.Warnings) == 0 {
		return
	}

	fmt.Fprintf(w, "Config: %s\n", path)
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "  Found %d error(s):\n", len(result.Errors))
		for _, err := range result.Errors {
			printEntry(w, err)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "  Found %d warning(s):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			printEntry(w, warn)
		}
	}
}

func printEntry(w io.Writer, e ValidationError) {
	if e.Field != "" {
		fmt.Fprintf(w, "  • [%s] %s\n", e.Field, e.Message)
	} else {
		fmt.Fprintf(w, "  • %s\n", e.Message)
	}
}
