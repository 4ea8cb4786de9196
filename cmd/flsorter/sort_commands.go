package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"flsorter/internal/catalog"
	"flsorter/internal/pipeline"
	"flsorter/internal/planner"
)

func newSortCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Move plugin shortcuts into their group folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dry-run") {
				dryRun = ctx.config.Sort.DryRun
			}
			report, err := runner.Sort(cmd.Context(), dryRun)
			if report != nil {
				if asJSON {
					if jsonErr := writeJSON(cmd, newSortView(report)); jsonErr != nil {
						return jsonErr
					}
				} else {
					printSortReport(cmd.OutOrStdout(), ctx.config.Database.Path, report)
				}
			}
			if err == nil && report.Execution != nil && len(report.Execution.Failures) > 0 {
				return fmt.Errorf("sort finished with %s", plural(len(report.Execution.Failures), "failed operation"))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would move without touching any file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the operations a sort would perform",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			report, err := runner.Plan(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, newSortView(report))
			}
			out := cmd.OutOrStdout()
			base := ctx.config.Database.Path
			rows := make([][]string, 0, len(report.Plan.Operations))
			for _, op := range report.Plan.Operations {
				source := ""
				if op.Source != "" {
					source = relative(base, op.Source)
				}
				rows = append(rows, []string{op.Kind.String(), op.Category.String(), op.Group, source, relative(base, op.Destination)})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "Nothing to do: no plugin matches a group")
			} else {
				writeTable(out, []string{"Op", "Category", "Group", "Source", "Destination"}, rows, nil)
			}
			printIssues(out, base, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the plan as JSON")
	return cmd
}

func newUnsortCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "unsort",
		Short: "Move sorted shortcuts back to where they were before sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			report, err := runner.Unsort(cmd.Context(), dryRun)
			if report != nil {
				printUnsortReport(cmd.OutOrStdout(), ctx.config.Database.Path, report)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would move back without touching any file")
	return cmd
}

func printSortReport(out io.Writer, base string, report *pipeline.Report) {
	verb := "Moved"
	if report.DryRun {
		verb = "Would move"
	}
	moved := 0
	if report.Execution != nil {
		moved = len(report.Execution.Moved())
	}
	fmt.Fprintf(out, "%s %s (%d already in place)\n", verb, plural(moved, "plugin"), report.Plan.Count(planner.Skip))
	for _, category := range catalog.Categories {
		counts := report.Summary[category]
		fmt.Fprintf(out, "  %-9s %d grouped, %d ungrouped\n", category.String()+":", counts.Assigned, counts.Unassigned)
	}
	printIssues(out, base, report)
	if report.Execution != nil && len(report.Execution.Failures) > 0 {
		fmt.Fprintf(out, "%s failed:\n", plural(len(report.Execution.Failures), "operation"))
		for _, f := range report.Execution.Failures {
			fmt.Fprintf(out, "  %s\n", f.Error())
		}
	}
	if report.Journaled {
		fmt.Fprintf(out, "Recorded as run %s\n", report.RunID)
	}
}

func printIssues(out io.Writer, base string, report *pipeline.Report) {
	if len(report.Plan.Collisions) > 0 {
		fmt.Fprintf(out, "%s left in place (destination taken):\n", plural(len(report.Plan.Collisions), "plugin"))
		for _, c := range report.Plan.Collisions {
			fmt.Fprintf(out, "  %s -> %s (occupied by %s)\n", relative(base, c.Source), relative(base, c.Destination), relative(base, c.Occupant))
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintf(out, "%s could not be read:\n", plural(len(report.Warnings), "file"))
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  %s: %v\n", relative(base, w.Path), w.Err)
		}
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "%s in groups but not in the database:\n", plural(len(report.Missing), "plugin"))
		for _, m := range report.Missing {
			if m.Installed != "" {
				fmt.Fprintf(out, "  %s (%s %s): installed at %s\n", m.Plugin, m.Category, m.Group, relative(base, m.Installed))
				continue
			}
			fmt.Fprintf(out, "  %s (%s %s): not installed\n", m.Plugin, m.Category, m.Group)
		}
	}
	for _, s := range report.Shadowed {
		fmt.Fprintf(out, "Note: %q is listed in %s group %q and %q; using %q\n",
			s.Plugin, s.Category, s.Winner.Name, s.Discarded.Name, s.Winner.Name)
	}
}

func printUnsortReport(out io.Writer, base string, report *pipeline.UnsortReport) {
	verb := "Restored"
	if report.DryRun {
		verb = "Would restore"
	}
	fmt.Fprintf(out, "%s %s\n", verb, plural(len(report.Restored), "plugin"))
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "%s no longer where flsorter put them:\n", plural(len(report.Missing), "file"))
		for _, m := range report.Missing {
			fmt.Fprintf(out, "  %s\n", relative(base, m.Destination))
		}
	}
	if len(report.Collisions) > 0 {
		fmt.Fprintf(out, "%s kept (original location taken):\n", plural(len(report.Collisions), "plugin"))
		for _, c := range report.Collisions {
			fmt.Fprintf(out, "  %s -> %s\n", relative(base, c.Source), relative(base, c.Destination))
		}
	}
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  failed: %s\n", f.Error())
	}
	if len(report.RemovedDirs) > 0 {
		fmt.Fprintf(out, "Removed %s\n", plural(len(report.RemovedDirs), "empty group folder"))
	}
}
