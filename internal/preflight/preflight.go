package preflight

import (
	"errors"
	"fmt"
	"strings"

	"flsorter/internal/config"
)

// ErrNotReady is returned by Require when a mandatory check failed.
var ErrNotReady = errors.New("preflight failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks are reported but never block a run.
	Optional bool
}

// RunAll executes every preflight check for the given config. The journal
// check is only included when the journal is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Plugin database", cfg.Database.Path),
		optional(CheckDirectoryAccess("Effects root", cfg.EffectsRoot())),
		optional(CheckDirectoryAccess("Generators root", cfg.GeneratorsRoot())),
		optional(CheckReadable("Installed plugins", cfg.InstalledRoot())),
		optional(CheckReadable("Effect groups", cfg.GroupsDir("effect"))),
		optional(CheckReadable("Generator groups", cfg.GroupsDir("generator"))),
	}
	if cfg.Journal.Enabled {
		results = append(results, CheckCreatable("Journal", cfg.Journal.Path))
	}
	return results
}

// CheckDatabase runs the checks a mutating run depends on.
func CheckDatabase(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{CheckDirectoryAccess("Plugin database", cfg.Database.Path)}
}

// Require returns an ErrNotReady error listing every failed mandatory result.
func Require(results []Result) error {
	var failed []string
	for _, r := range results {
		if r.Passed || r.Optional {
			continue
		}
		failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotReady, strings.Join(failed, "; "))
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
