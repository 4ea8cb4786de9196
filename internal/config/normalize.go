package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeSort()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDatabase() error {
	if value, ok := os.LookupEnv("FLSORTER_DATABASE"); ok && strings.TrimSpace(value) != "" {
		c.Database.Path = value
	}
	var err error
	if c.Database.Path, err = expandPath(strings.TrimSpace(c.Database.Path)); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	c.Database.EffectsDir = strings.TrimSpace(c.Database.EffectsDir)
	if c.Database.EffectsDir == "" {
		c.Database.EffectsDir = defaultEffectsDir
	}
	c.Database.GeneratorsDir = strings.TrimSpace(c.Database.GeneratorsDir)
	if c.Database.GeneratorsDir == "" {
		c.Database.GeneratorsDir = defaultGeneratorsDir
	}
	c.Database.InstalledDir = strings.TrimSpace(c.Database.InstalledDir)
	if c.Database.InstalledDir == "" {
		c.Database.InstalledDir = defaultInstalledDir
	}
	return nil
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSort() {
	c.Sort.Precedence = strings.ToLower(strings.TrimSpace(c.Sort.Precedence))
	if c.Sort.Precedence == "" {
		c.Sort.Precedence = defaultPrecedence
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}
