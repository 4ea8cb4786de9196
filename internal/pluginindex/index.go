// Package pluginindex discovers shortcut files under the category roots of the
// plugin database and decodes them into located plugin records.
package pluginindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"flsorter/internal/catalog"
	"flsorter/internal/logging"
	"flsorter/internal/shortcut"
)

// ErrRootNotDirectory reports a category root that is a file or an
// unresolved symlink rather than a directory.
var ErrRootNotDirectory = errors.New("category root is not a directory")

// Root is a category subtree of the plugin database.
type Root struct {
	Category catalog.Category
	Path     string
}

// Plugin is a shortcut file that decoded successfully.
type Plugin struct {
	Identity shortcut.Identity
	Path     string
	Category catalog.Category
}

// Warning records a file (or root) that could not be indexed.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// Index is the result of one scan.
type Index struct {
	Plugins  []Plugin
	Warnings []Warning
}

type options struct {
	workers int
	logger  *slog.Logger
	parse   func(string) (shortcut.Identity, error)
}

// Option customizes Scan.
type Option func(*options)

// WithWorkers bounds the number of concurrent parsers. Values <= 0 use NumCPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger attaches a logger for per-file diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Scan walks every root, parses each shortcut file and returns the plugins and
// per-file warnings sorted by path. Only context cancellation and
// unrecoverable walk errors abort the scan.
func Scan(ctx context.Context, roots []Root, opts ...Option) (*Index, error) {
	o := options{parse: shortcut.ParseFile}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	logger := logging.NewComponentLogger(o.logger, "pluginindex")

	cleaned := make([]Root, 0, len(roots))
	for _, root := range roots {
		cleaned = append(cleaned, Root{Category: root.Category, Path: filepath.Clean(root.Path)})
	}

	var (
		mu  sync.Mutex
		idx = &Index{}
	)
	warn := func(path string, err error) {
		mu.Lock()
		idx.Warnings = append(idx.Warnings, Warning{Path: path, Err: err})
		mu.Unlock()
	}

	seen := make(map[string]struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, root := range cleaned {
		walkErr := filepath.WalkDir(root.Path, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root.Path && errors.Is(err, fs.ErrNotExist) {
					warn(path, fmt.Errorf("category root missing: %w", err))
					return fs.SkipDir
				}
				warn(path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path == root.Path && !d.IsDir() {
				warn(path, ErrRootNotDirectory)
				return nil
			}
			if d.IsDir() || !IsShortcut(path) {
				return nil
			}
			// Nested roots are walked twice; the deepest root owns the file.
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			category, ok := Classify(cleaned, path)
			if !ok {
				return nil
			}
			g.Go(func() error {
				id, err := o.parse(path)
				if err != nil {
					logger.Debug("shortcut skipped", logging.Path(path), logging.Error(err))
					warn(path, err)
					return nil
				}
				mu.Lock()
				idx.Plugins = append(idx.Plugins, Plugin{Identity: id, Path: path, Category: category})
				mu.Unlock()
				return nil
			})
			return nil
		})
		if walkErr != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("scan %s: %w", root.Path, walkErr)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(idx.Plugins, func(a, b Plugin) int { return strings.Compare(a.Path, b.Path) })
	slices.SortFunc(idx.Warnings, func(a, b Warning) int { return strings.Compare(a.Path, b.Path) })
	logger.Debug("scan complete",
		logging.Int("plugins", len(idx.Plugins)),
		logging.Int("warnings", len(idx.Warnings)),
	)
	return idx, nil
}

// IsShortcut reports whether path has the shortcut extension.
func IsShortcut(path string) bool {
	return strings.EqualFold(filepath.Ext(path), shortcut.Extension)
}

// Classify returns the category of the deepest root that contains path.
func Classify(roots []Root, path string) (catalog.Category, bool) {
	path = filepath.Clean(path)
	best := -1
	var category catalog.Category
	for _, root := range roots {
		rootPath := filepath.Clean(root.Path)
		rel, err := filepath.Rel(rootPath, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			continue
		}
		if len(rootPath) > best {
			best = len(rootPath)
			category = root.Category
		}
	}
	return category, best >= 0
}
