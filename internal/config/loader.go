package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if PEAKLINE_CONFIG is set
//  3. env (prefix PEAKLINE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PEAKLINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: PEAKLINE_ADDR, PEAKLINE_MAX_GOALS, ...
	// Map env keys like PEAKLINE_MAX_GOALS -> max_goals (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PEAKLINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "peakline_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.MaxHorizonDays <= 0 {
		return nil, errors.New("max_horizon_days must be positive")
	}
	if cfg.MaxGoals <= 0 {
		return nil, errors.New("max_goals must be positive")
	}
	return &cfg, nil
}
