// Package testsupport provides shared fixtures for package tests: configs
// seeded with per-test temp directories and ledger stores with cleanup.
package testsupport

import (
	"path/filepath"
	"testing"

	"apd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArtifactDir = filepath.Join(base, "pdfs")
	cfg.Paths.ResultDir = filepath.Join(base, "videos")
	cfg.Paths.DigestDir = filepath.Join(base, "digests")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Generator.SessionFile = filepath.Join(base, "session.json")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMaxRetries overrides the pipeline retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.MaxRetries = n
	}
}
