package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SQUIG_CONFIG is set
//  3. env (prefix SQUIG_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SQUIG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SQUIG_CACHE_DIR, SQUIG_DOMAIN_BATCH_SIZE, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SQUIG_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "squig_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache_dir must not be empty", ErrInvalidConfig)
	}
	if c.TargetsDir == "" {
		return fmt.Errorf("%w: targets_dir must not be empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.DomainBatchSize < 1 {
		return fmt.Errorf("%w: domain_batch_size must be positive", ErrInvalidConfig)
	}
	if c.MeasurementBatchSize < 1 {
		return fmt.Errorf("%w: measurement_batch_size must be positive", ErrInvalidConfig)
	}
	if c.CatalogTimeoutMS <= 0 || c.MeasurementTimeoutMS <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.CatalogRetries < 0 {
		return fmt.Errorf("%w: catalog_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}
