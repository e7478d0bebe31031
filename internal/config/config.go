// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CalibrationFile points at an optional YAML calibration overlay.
	// Empty means the built-in default calibration.
	CalibrationFile string `koanf:"calibration_file"`

	// MaxHorizonDays caps how far a projection may extend past the
	// plan start.
	MaxHorizonDays int `koanf:"max_horizon_days"`

	// MaxGoals caps the number of goals accepted per plan.
	MaxGoals int `koanf:"max_goals"`

	// MaxBodyBytes bounds accepted request body sizes.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		MaxHorizonDays: 400,
		MaxGoals:       8,
		MaxBodyBytes:   1 << 20,
	}
	return c
}
