package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Database describes the plugin database layout.
type Database struct {
	Path          string `toml:"path"`
	EffectsDir    string `toml:"effects_dir"`
	GeneratorsDir string `toml:"generators_dir"`
	InstalledDir  string `toml:"installed_dir"`
}

// Sort contains sorting behaviour knobs.
type Sort struct {
	// Precedence is "first" (earliest loaded group wins) or "strict".
	Precedence string `toml:"precedence"`
	// Workers bounds parallel parsing and execution; 0 means NumCPU.
	Workers int  `toml:"workers"`
	DryRun  bool `toml:"dry_run"`
}

// Journal configures the record of executed moves.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for flsorter.
type Config struct {
	Database Database `toml:"database"`
	Sort     Sort     `toml:"sort"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`

	// Dir is the resolved config root; it is never read from the file.
	Dir string `toml:"-"`
}

// DefaultDir returns the absolute default config root.
func DefaultDir() (string, error) {
	return expandPath(defaultConfigDir)
}

// ResolveDir picks the config root: the explicit value, then
// FLSORTER_CONFIG_DIR, then the default.
func ResolveDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		if value, ok := os.LookupEnv("FLSORTER_CONFIG_DIR"); ok && strings.TrimSpace(value) != "" {
			dir = value
		} else {
			dir = defaultConfigDir
		}
	}
	return expandPath(strings.TrimSpace(dir))
}

// Load reads <dir>/config.toml (when present), then normalizes and validates
// the result. It returns the config, the config file path and whether the
// file existed.
func Load(dir string) (*Config, string, bool, error) {
	cfg := Default()

	root, err := ResolveDir(dir)
	if err != nil {
		return nil, "", false, err
	}
	cfg.Dir = root
	path := filepath.Join(root, configFileName)

	exists := false
	file, err := os.Open(path)
	switch {
	case err == nil:
		exists = true
		defer file.Close()
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, path, exists, nil
}

// GroupsDir returns the directory holding group files for a category name
// ("effect" or "generator").
func (c *Config) GroupsDir(category string) string {
	return filepath.Join(c.Dir, category)
}

// EffectsRoot returns the effect category root inside the plugin database.
func (c *Config) EffectsRoot() string {
	return filepath.Join(c.Database.Path, c.Database.EffectsDir)
}

// GeneratorsRoot returns the generator category root inside the plugin database.
func (c *Config) GeneratorsRoot() string {
	return filepath.Join(c.Database.Path, c.Database.GeneratorsDir)
}

// InstalledRoot returns the directory of installed plugin shortcuts.
func (c *Config) InstalledRoot() string {
	return filepath.Join(c.Database.Path, c.Database.InstalledDir)
}

// LockPath returns the lock file guarding mutations of the plugin database.
func (c *Config) LockPath() string {
	return filepath.Join(c.Database.Path, ".flsorter.lock")
}

// EnsureDirectories creates the group directories under the config root and
// the journal directory when the journal is enabled.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.GroupsDir("effect"), c.GroupsDir("generator")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) != "" {
		dir := filepath.Dir(c.Journal.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SamplePath returns where CreateSample should write for a config root.
func SamplePath(dir string) string {
	return filepath.Join(dir, configFileName)
}
