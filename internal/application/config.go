// Package application implements the evaluation scoring engine: the
// trend and category aggregation reads and the early-intervention risk
// scan, composed over the store contracts in ports.
package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// EngineConfig controls the scoring engine's thresholds and windowing.
// Configuration is immutable after service creation and validated for
// consistency; the zero value is not usable, start from
// DefaultEngineConfig.
type EngineConfig struct {
	// WindowDays is the trailing window, in days, used to select reviewed
	// responses for a risk scan. A sliding window, not a calendar week.
	WindowDays int `yaml:"window_days" validate:"required,min=1,max=90"`

	// HighBelow is the pooled-average line below which a HIGH flag is
	// raised. The comparison is strict (<), so an average exactly on the
	// line falls through to the medium tier.
	HighBelow float64 `yaml:"high_below" validate:"required,gt=0,ltefield=MediumBelow"`

	// MediumBelow is the pooled-average line below which a MEDIUM flag is
	// raised when the high tier did not fire. An average at or above this
	// line raises nothing.
	MediumBelow float64 `yaml:"medium_below" validate:"required,gt=0"`

	// ScaleMax is the rating scale ceiling reported with category scores.
	// It is presentation metadata only; normalization never range-checks
	// accepted ratings against it.
	ScaleMax int `yaml:"scale_max" validate:"required,min=1"`

	// ScanConcurrency bounds the number of concurrent per-person scans in
	// a population sweep.
	ScanConcurrency int `yaml:"scan_concurrency" validate:"required,min=1,max=64"`

	// StoreRateLimit caps store reads per second during population
	// sweeps. Zero disables the limiter.
	StoreRateLimit float64 `yaml:"store_rate_limit" validate:"min=0"`
}

// DefaultEngineConfig returns the production defaults: a 7-day window,
// HIGH below 2.0, MEDIUM below 2.5, a 1-7 rating scale, and modest
// sweep concurrency.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WindowDays:      7,
		HighBelow:       2.0,
		MediumBelow:     2.5,
		ScaleMax:        7,
		ScanConcurrency: 8,
		StoreRateLimit:  0,
	}
}

// Validate checks the configuration for consistency.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// LoadEngineConfig reads a YAML config file over the defaults, so a file
// only needs to name the settings it changes. The merged configuration
// is validated before being returned.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}
