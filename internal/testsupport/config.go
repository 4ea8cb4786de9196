package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"flsorter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// <base>/config for group files, <base>/db as the plugin database (with its
// Effects and Generators roots created) and <base>/state for the journal.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Dir = filepath.Join(base, "config")
	cfgVal.Database.Path = filepath.Join(base, "db")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Sort.Workers = 4

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.EffectsRoot(), cfgVal.GeneratorsRoot()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithoutJournal disables the move journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithPrecedence sets sort.precedence.
func WithPrecedence(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sort.Precedence = value
	}
}

// WithDryRun sets sort.dry_run.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sort.DryRun = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Database.Path)
}
