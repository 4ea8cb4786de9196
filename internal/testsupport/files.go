package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"flsorter/internal/catalog"
	"flsorter/internal/config"
	"flsorter/internal/shortcut"
)

// ShortcutOption customizes a fixture shortcut.
type ShortcutOption func(*shortcut.Identity)

// WithVersion selects the name encoding of the fixture.
func WithVersion(version uint8) ShortcutOption {
	return func(id *shortcut.Identity) { id.Tag.Version = version }
}

// WithKind sets the plugin kind byte.
func WithKind(kind shortcut.Kind) ShortcutOption {
	return func(id *shortcut.Identity) { id.Tag.Kind = kind }
}

// ShortcutBytes encodes a shortcut naming plugin. Defaults to a UTF-8 VST entry.
func ShortcutBytes(t testing.TB, name string, opts ...ShortcutOption) []byte {
	t.Helper()

	id := shortcut.Identity{
		Name: name,
		Tag:  shortcut.Tag{Version: shortcut.VersionUTF8, Kind: shortcut.KindVST, PluginID: 0x464c5354},
	}
	for _, opt := range opts {
		opt(&id)
	}
	data, err := shortcut.Encode(id, []byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("encode shortcut %q: %v", name, err)
	}
	return data
}

// WriteShortcut writes a shortcut file naming plugin at path, creating parent
// directories.
func WriteShortcut(t testing.TB, path, name string, opts ...ShortcutOption) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, ShortcutBytes(t, name, opts...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteRaw writes arbitrary bytes to path, creating parent directories.
func WriteRaw(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteGroup writes a group file into the config root and returns its path.
func WriteGroup(t testing.TB, cfg *config.Config, category catalog.Category, fileName, group string, plugins ...string) string {
	t.Helper()

	path, err := catalog.WriteGroup(cfg.Dir, catalog.Spec{Name: group, Category: category, Members: plugins}, fileName, true)
	if err != nil {
		t.Fatalf("write group %q: %v", group, err)
	}
	return path
}

// Exists reports whether path exists.
func Exists(t testing.TB, path string) bool {
	t.Helper()

	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}
