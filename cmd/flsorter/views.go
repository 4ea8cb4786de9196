package main

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flsorter/internal/executor"
	"flsorter/internal/pipeline"
	"flsorter/internal/planner"
)

type operationView struct {
	Kind        string `json:"kind"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination"`
	Category    string `json:"category"`
	Group       string `json:"group"`
}

type issueView struct {
	Path        string `json:"path"`
	Destination string `json:"destination,omitempty"`
	Error       string `json:"error"`
}

type countsView struct {
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
}

type sortView struct {
	RunID      string                `json:"run_id"`
	DryRun     bool                  `json:"dry_run"`
	Groups     int                   `json:"groups"`
	Plugins    int                   `json:"plugins"`
	Summary    map[string]countsView `json:"summary"`
	Operations []operationView       `json:"operations"`
	Collisions []issueView           `json:"collisions"`
	Warnings   []issueView           `json:"warnings"`
	Missing    []missingView         `json:"missing"`
	Failures   []issueView           `json:"failures,omitempty"`
	Moved      int                   `json:"moved"`
	Skipped    int                   `json:"skipped"`
	Unassigned int                   `json:"unassigned"`
	Journaled  bool                  `json:"journaled"`
}

func newSortView(report *pipeline.Report) sortView {
	view := sortView{
		RunID:      report.RunID,
		DryRun:     report.DryRun,
		Groups:     report.Groups,
		Plugins:    report.Plugins,
		Summary:    map[string]countsView{},
		Operations: []operationView{},
		Collisions: []issueView{},
		Warnings:   []issueView{},
		Missing:    []missingView{},
		Journaled:  report.Journaled,
	}
	for category, counts := range report.Summary {
		view.Summary[category.String()] = countsView{Assigned: counts.Assigned, Unassigned: counts.Unassigned}
	}
	if report.Plan != nil {
		for _, op := range report.Plan.Operations {
			view.Operations = append(view.Operations, newOperationView(op))
		}
		for _, c := range report.Plan.Collisions {
			view.Collisions = append(view.Collisions, issueView{Path: c.Source, Destination: c.Destination, Error: c.Error()})
		}
		view.Skipped = report.Plan.Count(planner.Skip)
		view.Unassigned = report.Plan.Unassigned
	}
	for _, w := range report.Warnings {
		view.Warnings = append(view.Warnings, issueView{Path: w.Path, Error: w.Err.Error()})
	}
	for _, m := range report.Missing {
		view.Missing = append(view.Missing, missingView{
			Category:  m.Category.String(),
			Group:     m.Group,
			Plugin:    m.Plugin,
			Installed: m.Installed,
		})
	}
	if report.Execution != nil {
		view.Moved = len(report.Execution.Moved())
		view.Failures = failureViews(report.Execution.Failures)
	}
	return view
}

type missingView struct {
	Category  string `json:"category"`
	Group     string `json:"group"`
	Plugin    string `json:"plugin"`
	Installed string `json:"installed,omitempty"`
}

func newOperationView(op planner.Operation) operationView {
	return operationView{
		Kind:        op.Kind.String(),
		Source:      op.Source,
		Destination: op.Destination,
		Category:    op.Category.String(),
		Group:       op.Group,
	}
}

func failureViews(failures []executor.ExecError) []issueView {
	var views []issueView
	for _, f := range failures {
		views = append(views, issueView{Path: f.Op.Source, Destination: f.Op.Destination, Error: f.Err.Error()})
	}
	return views
}

// relative shortens path for display when it lies under base.
func relative(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// writeJSON encodes v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
