package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"flsorter/internal/textutil"
)

// GroupFileExt is the extension of group definition files.
const GroupFileExt = ".toml"

// ErrGroupExists reports an attempt to replace a group file without overwrite.
var ErrGroupExists = errors.New("group file already exists")

type groupFile struct {
	Group   string   `toml:"group"`
	Name    string   `toml:"name,omitempty"`
	Plugins []string `toml:"plugins"`
}

// Dir returns the directory holding group files for a category.
func Dir(root string, category Category) string {
	return filepath.Join(root, category.String())
}

// ReadDir reads every group file under root, effect groups first, each
// category sorted lexicographically by filename. A missing category
// directory contributes no groups. Any unreadable file fails the whole read
// because a partially loaded catalog cannot be trusted.
func ReadDir(root string) ([]Spec, error) {
	var specs []Spec
	for _, category := range Categories {
		dir := Dir(root, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: read %s groups: %w", ErrCatalog, category, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), GroupFileExt) {
				continue
			}
			names = append(names, entry.Name())
		}
		slices.Sort(names)
		for _, name := range names {
			spec, err := ReadFile(filepath.Join(dir, name), category)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// ReadFile parses a single group file.
func ReadFile(path string, category Category) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: read %s: %w", ErrCatalog, path, err)
	}
	var file groupFile
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return Spec{}, fmt.Errorf("%w: parse %s: %w", ErrCatalog, path, err)
	}
	name := file.Group
	if strings.TrimSpace(name) == "" {
		name = file.Name
	}
	return Spec{
		Name:     name,
		Category: category,
		Members:  file.Plugins,
		Source:   path,
	}, nil
}

// WriteGroup writes spec as <root>/<category>/<fileName>.toml and returns the path.
func WriteGroup(root string, spec Spec, fileName string, overwrite bool) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("%w: group name is empty", ErrCatalog)
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = FileName(spec.Name)
	}
	if !strings.EqualFold(filepath.Ext(fileName), GroupFileExt) {
		fileName += GroupFileExt
	}
	dir := Dir(root, spec.Category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create group directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrGroupExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("check group file: %w", err)
		}
	}

	members := spec.Members
	if members == nil {
		members = []string{}
	}
	data, err := toml.Marshal(groupFile{Group: strings.TrimSpace(spec.Name), Plugins: members})
	if err != nil {
		return "", fmt.Errorf("encode group %q: %w", spec.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write group %q: %w", spec.Name, err)
	}
	return path, nil
}

// FileName derives a group file name from a group name.
func FileName(name string) string {
	return textutil.Token(name, "group") + GroupFileExt
}
