// Package vstscan lists installed VST plugin binaries so a group definition
// can be generated from a vendor's install folder.
package vstscan

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"flsorter/internal/textutil"
)

// ErrNoPlugins is returned when a directory holds no VST binaries.
var ErrNoPlugins = errors.New("no plugins found in folder")

var extensions = []string{".dll", ".vst3"}

// IsVST reports whether path names a VST binary (.dll or .vst3, any case).
func IsVST(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(extensions, ext)
}

// Names returns the sorted, de-duplicated plugin names (file names without
// extension) of the VST binaries in dir. With recurse, subdirectories are
// searched too. A .vst3 bundle directory counts as one plugin and is never
// descended into.
func Names(dir string, recurse bool) ([]string, error) {
	root := filepath.Clean(dir)
	seen := map[string]struct{}{}
	var names []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			if !d.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}
			return nil
		}
		if d.IsDir() {
			if IsVST(path) {
				add(&names, seen, path)
				return fs.SkipDir
			}
			if !recurse {
				return fs.SkipDir
			}
			return nil
		}
		if IsVST(path) {
			add(&names, seen, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPlugins, root)
	}
	slices.Sort(names)
	return names, nil
}

func add(names *[]string, seen map[string]struct{}, path string) {
	base := filepath.Base(path)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		return
	}
	if _, ok := seen[name]; ok {
		return
	}
	seen[name] = struct{}{}
	*names = append(*names, name)
}

// GroupName derives a default group name from the scanned directory, made
// safe for use as a folder name.
func GroupName(dir string) string {
	return textutil.SanitizeFileName(filepath.Base(filepath.Clean(dir)))
}
