package config

const (
	defaultConfigDir     = "~/.config/flsorter"
	defaultDatabasePath  = "~/Documents/Image-Line/FL Studio/Presets/Plugin database"
	defaultEffectsDir    = "Effects"
	defaultGeneratorsDir = "Generators"
	defaultInstalledDir  = "Installed"
	defaultJournalPath   = "~/.local/share/flsorter/journal.db"
	defaultPrecedence    = "first"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	configFileName = "config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Database: Database{
			Path:          defaultDatabasePath,
			EffectsDir:    defaultEffectsDir,
			GeneratorsDir: defaultGeneratorsDir,
			InstalledDir:  defaultInstalledDir,
		},
		Sort: Sort{
			Precedence: defaultPrecedence,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
