package pipeline

import (
	"flsorter/internal/catalog"
	"flsorter/internal/executor"
	"flsorter/internal/journal"
	"flsorter/internal/matching"
	"flsorter/internal/planner"
	"flsorter/internal/pluginindex"
)

// Report describes one sort cycle.
type Report struct {
	RunID    string
	DryRun   bool
	Groups   int
	Shadowed []catalog.Shadowed
	Plugins  int
	Warnings []pluginindex.Warning
	Summary  map[catalog.Category]matching.Counts
	// Missing lists group members with no shortcut in their category root.
	Missing   []MissingMember
	Plan      *planner.Plan
	Execution *executor.Report
	// Journaled is set when the run was recorded in the journal.
	Journaled bool
}

// MissingMember is a group member that the scan did not find.
type MissingMember struct {
	Category catalog.Category
	Group    string
	Plugin   string
	// Installed is the shortcut FL Studio keeps under the installed folder,
	// or empty when the plugin is not installed at all.
	Installed string
}

// Totals condenses the report into journal counters.
func (r *Report) Totals() journal.Totals {
	if r == nil {
		return journal.Totals{}
	}
	t := journal.Totals{Warnings: len(r.Warnings)}
	if r.Plan != nil {
		t.Skipped = r.Plan.Count(planner.Skip)
		t.Collisions = len(r.Plan.Collisions)
		t.Unassigned = r.Plan.Unassigned
	}
	if r.Execution != nil {
		t.Moved = len(r.Execution.Moved())
		t.Failed = len(r.Execution.Failures)
	}
	return t
}

// UnsortReport describes one unsort cycle.
type UnsortReport struct {
	RunID  string
	DryRun bool
	// Restored lists moves that were (or in dry-run mode would be) reverted.
	Restored []journal.Move
	// Missing lists recorded moves whose file is no longer at its destination.
	Missing    []journal.Move
	Collisions []planner.Collision
	Failures   []executor.ExecError
	// RemovedDirs lists group directories deleted because they became empty.
	RemovedDirs []string
}

// Totals condenses the unsort report into journal counters.
func (r *UnsortReport) Totals() journal.Totals {
	if r == nil {
		return journal.Totals{}
	}
	return journal.Totals{
		Moved:      len(r.Restored),
		Skipped:    len(r.Missing),
		Collisions: len(r.Collisions),
		Failed:     len(r.Failures),
	}
}
