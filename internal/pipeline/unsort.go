package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"flsorter/internal/catalog"
	"flsorter/internal/executor"
	"flsorter/internal/fileutil"
	"flsorter/internal/journal"
	"flsorter/internal/logging"
	"flsorter/internal/planner"
	"flsorter/internal/preflight"
)

// Unsort returns journaled files to their pre-sort locations, newest move
// first, and removes group directories that end up empty. A file whose
// original location is occupied stays put and is reported as a collision.
func (r *Runner) Unsort(ctx context.Context, dryRun bool) (*UnsortReport, error) {
	if !r.cfg.Journal.Enabled {
		return nil, ErrJournalDisabled
	}
	runID := r.newID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	if !dryRun {
		if err := preflight.Require(preflight.CheckDatabase(r.cfg)); err != nil {
			return nil, err
		}
		lock, err := executor.AcquireLock(r.cfg.LockPath())
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release database lock", logging.Error(err))
			}
		}()
	}

	store, err := journal.Open(r.cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	pending, err := store.PendingMoves(ctx, r.cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	report := &UnsortReport{RunID: runID, DryRun: dryRun}
	if len(pending) == 0 {
		logger.Info("nothing to unsort")
		return report, nil
	}
	if !dryRun {
		if err := store.BeginRun(ctx, journal.Run{ID: runID, Kind: journal.RunUnsort, DatabasePath: r.cfg.Database.Path}); err != nil {
			return nil, err
		}
	}

	// Dry runs track simulated state so chained moves resolve as they would.
	virtual := map[string]bool{}
	exists := func(path string) (bool, error) {
		if v, ok := virtual[path]; ok {
			return v, nil
		}
		return fileutil.Exists(path)
	}

	// blocked holds locations whose rightful file could not be returned; a
	// file found there belongs to someone else and must not be moved further.
	blocked := map[string]bool{}
	vacated := map[string]struct{}{}
	var reverted []journal.Move
	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			r.recordUnsort(ctx, store, report, reverted)
			return report, err
		}
		op := planner.Operation{Kind: planner.Move, Source: m.Destination, Destination: m.Source, Group: m.Group}
		if category, err := catalog.ParseCategory(m.Category); err == nil {
			op.Category = category
		}

		present, err := exists(m.Destination)
		if err != nil {
			blocked[m.Source] = true
			report.Failures = append(report.Failures, executor.ExecError{Op: op, Err: err})
			continue
		}
		if present && blocked[m.Destination] {
			blocked[m.Source] = true
			report.Collisions = append(report.Collisions, planner.Collision{
				Source:      m.Destination,
				Destination: m.Source,
				Occupant:    m.Destination,
				Group:       m.Group,
				Err:         planner.ErrDestinationCollision,
			})
			continue
		}
		if !present {
			blocked[m.Source] = true
			report.Missing = append(report.Missing, m)
			if !dryRun {
				if err := store.MarkReverted(ctx, m.ID); err != nil {
					logger.Warn("journal update failed", logging.Error(err))
				}
			}
			continue
		}
		occupied, err := exists(m.Source)
		if err != nil || occupied {
			blocked[m.Source] = true
			report.Collisions = append(report.Collisions, planner.Collision{
				Source:      m.Destination,
				Destination: m.Source,
				Occupant:    m.Source,
				Group:       m.Group,
				Err:         planner.ErrDestinationCollision,
			})
			logging.WarnWithContext(logger, "original location taken", "unsort_collision",
				logging.Path(m.Destination),
				logging.String("destination", m.Source),
			)
			continue
		}

		if dryRun {
			virtual[m.Destination] = false
			virtual[m.Source] = true
		} else {
			if err := restore(m.Destination, m.Source); err != nil {
				blocked[m.Source] = true
				if errors.Is(err, fileutil.ErrDestinationExists) {
					report.Collisions = append(report.Collisions, planner.Collision{
						Source:      m.Destination,
						Destination: m.Source,
						Occupant:    m.Source,
						Group:       m.Group,
						Err:         fmt.Errorf("%w: %w", planner.ErrDestinationCollision, err),
					})
					continue
				}
				report.Failures = append(report.Failures, executor.ExecError{Op: op, Err: err})
				logging.WarnWithContext(logger, "restore failed", "unsort_failed",
					logging.Path(m.Destination),
					logging.Error(err),
				)
				continue
			}
			if err := store.MarkReverted(ctx, m.ID); err != nil {
				logger.Warn("journal update failed", logging.Error(err))
			}
			reverted = append(reverted, journal.Move{
				Source:      m.Destination,
				Destination: m.Source,
				Category:    m.Category,
				Group:       m.Group,
			})
		}
		report.Restored = append(report.Restored, m)
		vacated[filepath.Dir(m.Destination)] = struct{}{}
	}

	if !dryRun {
		report.RemovedDirs = r.removeEmptyGroupDirs(vacated, logger)
	}
	r.recordUnsort(ctx, store, report, reverted)

	logger.Info("unsort complete",
		logging.Int("restored", len(report.Restored)),
		logging.Int("missing", len(report.Missing)),
		logging.Int("collisions", len(report.Collisions)),
		logging.Int("failed", len(report.Failures)),
		logging.Int("removed_dirs", len(report.RemovedDirs)),
		logging.Bool("dry_run", dryRun),
	)
	return report, nil
}

func restore(current, original string) error {
	if err := os.MkdirAll(filepath.Dir(original), 0o755); err != nil {
		return fmt.Errorf("create original directory: %w", err)
	}
	return fileutil.MoveNoClobber(current, original)
}

func (r *Runner) recordUnsort(ctx context.Context, store *journal.Store, report *UnsortReport, reverted []journal.Move) {
	if report.DryRun {
		return
	}
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, r.logger)
	if err := store.RecordMoves(ctx, report.RunID, reverted); err != nil {
		logger.Warn("journal write failed", logging.Error(err))
	}
	if err := store.FinishRun(ctx, report.RunID, report.Totals()); err != nil {
		logger.Warn("journal finish failed", logging.Error(err))
	}
}

// removeEmptyGroupDirs deletes vacated directories strictly inside a category
// root, walking upwards while parents become empty.
func (r *Runner) removeEmptyGroupDirs(vacated map[string]struct{}, logger *slog.Logger) []string {
	roots := r.Roots()
	dirs := make([]string, 0, len(vacated))
	for dir := range vacated {
		dirs = append(dirs, dir)
	}
	// Deepest first so nested groups empty their parents.
	slices.SortFunc(dirs, func(a, b string) int {
		if d := strings.Count(b, string(os.PathSeparator)) - strings.Count(a, string(os.PathSeparator)); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})

	var removed []string
	for _, dir := range dirs {
		for insideRoot(roots, dir) {
			ok, err := fileutil.RemoveIfEmpty(dir)
			if err != nil {
				logger.Warn("remove group directory failed", logging.Path(dir), logging.Error(err))
				break
			}
			if !ok {
				break
			}
			removed = append(removed, dir)
			dir = filepath.Dir(dir)
		}
	}
	slices.Sort(removed)
	return removed
}

func insideRoot(roots map[catalog.Category]string, dir string) bool {
	dir = filepath.Clean(dir)
	for _, root := range roots {
		rel, err := filepath.Rel(filepath.Clean(root), dir)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
