package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flsorter/internal/journal"
)

type runView struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Database   string    `json:"database"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Moved      int       `json:"moved"`
	Skipped    int       `json:"skipped"`
	Collisions int       `json:"collisions"`
	Failed     int       `json:"failed"`
	Warnings   int       `json:"warnings"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sort and unsort runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled (journal.enabled = false)")
			}
			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				if _, err := store.GetRun(cmd.Context(), runID); err != nil {
					return err
				}
				moves, err := store.Moves(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if asJSON {
					if moves == nil {
						moves = []journal.Move{}
					}
					return writeJSON(cmd, moves)
				}
				rows := make([][]string, 0, len(moves))
				for _, m := range moves {
					reverted := ""
					if m.Reverted() {
						reverted = m.RevertedAt.Local().Format(time.DateTime)
					}
					rows = append(rows, []string{m.Group, relative(cfg.Database.Path, m.Source), relative(cfg.Database.Path, m.Destination), reverted})
				}
				writeTable(out, []string{"Group", "From", "To", "Reverted"}, rows, nil)
				return nil
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]runView, 0, len(runs))
			for _, r := range runs {
				views = append(views, runView{
					ID:         r.ID,
					Kind:       string(r.Kind),
					Database:   r.DatabasePath,
					StartedAt:  r.StartedAt,
					FinishedAt: r.FinishedAt,
					Moved:      r.Moved,
					Skipped:    r.Skipped,
					Collisions: r.Collisions,
					Failed:     r.Failed,
					Warnings:   r.Warnings,
				})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.ID,
					v.Kind,
					v.StartedAt.Local().Format(time.DateTime),
					strconv.Itoa(v.Moved),
					strconv.Itoa(v.Skipped),
					strconv.Itoa(v.Collisions),
					strconv.Itoa(v.Failed),
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
			writeTable(out, []string{"Run", "Kind", "Started", "Moved", "Skipped", "Collisions", "Failed"}, rows, aligns)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the moves of one run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
