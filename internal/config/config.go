// Package config defines scanner configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Static data (domain list, overrides, classifier rule tables) lives here
//     as plain data; behavior belongs to the packages consuming it.
//   - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CacheDir is where the index, blobs, domain hashes, and checkpoint live.
	CacheDir string `koanf:"cache_dir"`

	// TargetsDir holds target curve files; CompensationDir the per-rig
	// compensation curves.
	TargetsDir      string `koanf:"targets_dir"`
	CompensationDir string `koanf:"compensation_dir"`

	// OutputDir receives ranked result documents and the curve export.
	OutputDir string `koanf:"output_dir"`

	// DomainBatchSize bounds how many domains scan concurrently;
	// MeasurementBatchSize bounds concurrent fetches within one domain.
	DomainBatchSize      int `koanf:"domain_batch_size"`
	MeasurementBatchSize int `koanf:"measurement_batch_size"`

	// CatalogTimeoutMS applies to catalog listings, MeasurementTimeoutMS to
	// individual measurement files. Measurement fetches never retry: a slow
	// file is treated as absent so a long device list stays bounded.
	CatalogTimeoutMS     int `koanf:"catalog_timeout_ms"`
	MeasurementTimeoutMS int `koanf:"measurement_timeout_ms"`

	// CatalogRetries and BackoffBaseMS shape the exponential backoff used
	// for catalog fetches only.
	CatalogRetries int `koanf:"catalog_retries"`
	BackoffBaseMS  int `koanf:"backoff_base_ms"`

	// ForceRescan bypasses domain-level change detection.
	ForceRescan bool `koanf:"force_rescan"`

	// MetricsAddr, when set, serves prometheus metrics during the run.
	MetricsAddr string `koanf:"metrics_addr"`

	// UserAgent identifies the scanner to remote archives.
	UserAgent string `koanf:"user_agent"`

	// Domains replaces the built-in curated list when non-empty
	// (mostly for tests and partial rescans).
	Domains []string `koanf:"domains"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		CacheDir:             "cache",
		TargetsDir:           "targets",
		CompensationDir:      "targets/compensation",
		OutputDir:            "out",
		DomainBatchSize:      5,
		MeasurementBatchSize: 8,
		CatalogTimeoutMS:     20_000,
		MeasurementTimeoutMS: 8_000,
		CatalogRetries:       3,
		BackoffBaseMS:        500,
		UserAgent:            "squigscan/1.0 (+https://github.com/okian/squigscan)",
	}
}

// ScanDomains returns the configured domain list, falling back to the
// curated archive list.
func (c *Config) ScanDomains() []string {
	if len(c.Domains) > 0 {
		return c.Domains
	}
	return CuratedDomains()
}
