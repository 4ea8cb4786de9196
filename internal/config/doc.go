// Package config loads, normalizes, and validates flsorter configuration data.
//
// The config root (default ~/.config/flsorter) holds config.toml next to the
// effect/ and generator/ group directories. The root is resolved once by the
// caller and threaded through explicitly; nothing in the program reads it from
// a global. Load supplies defaults, expands ~ in paths, honours the
// FLSORTER_CONFIG_DIR and FLSORTER_DATABASE environment overrides, and
// validates the plugin database layout settings before anything touches disk.
package config
