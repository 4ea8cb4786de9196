package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSort(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path: must be set")
	}
	for key, dir := range map[string]string{
		"database.effects_dir":    c.Database.EffectsDir,
		"database.generators_dir": c.Database.GeneratorsDir,
		"database.installed_dir":  c.Database.InstalledDir,
	} {
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return fmt.Errorf("%s: %q must be relative to database.path", key, dir)
		}
	}
	effects := filepath.Clean(c.Database.EffectsDir)
	generators := filepath.Clean(c.Database.GeneratorsDir)
	if effects == generators {
		return fmt.Errorf("database.generators_dir: must differ from effects_dir (%q)", effects)
	}
	if nested(effects, generators) || nested(generators, effects) {
		return fmt.Errorf("database: effects_dir %q and generators_dir %q must not be nested", effects, generators)
	}
	return nil
}

func (c *Config) validateSort() error {
	switch c.Sort.Precedence {
	case "first", "strict":
	default:
		return fmt.Errorf("sort.precedence: unsupported value %q (want first or strict)", c.Sort.Precedence)
	}
	if c.Sort.Workers < 0 {
		return fmt.Errorf("sort.workers: must be >= 0, got %d", c.Sort.Workers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func nested(parent, child string) bool {
	if parent == "." {
		return true
	}
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
