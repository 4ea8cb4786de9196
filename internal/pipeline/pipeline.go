package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"flsorter/internal/catalog"
	"flsorter/internal/config"
	"flsorter/internal/executor"
	"flsorter/internal/fileutil"
	"flsorter/internal/journal"
	"flsorter/internal/logging"
	"flsorter/internal/matching"
	"flsorter/internal/planner"
	"flsorter/internal/pluginindex"
	"flsorter/internal/preflight"
	"flsorter/internal/shortcut"
)

// ErrJournalDisabled is returned by Unsort when the journal is turned off.
var ErrJournalDisabled = errors.New("journal is disabled; unsort needs a recorded history")

// Runner executes cycles for one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	occ    planner.Occupancy
	newID  func() string
}

// New constructs a Runner. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		occ:    executor.DiskOccupancy{},
		newID:  uuid.NewString,
	}
}

// Roots returns the category roots of the configured database with symlinks
// resolved, so scanning and planning see the same real paths.
func (r *Runner) Roots() map[catalog.Category]string {
	return map[catalog.Category]string{
		catalog.Effect:    resolveRoot(r.cfg.EffectsRoot()),
		catalog.Generator: resolveRoot(r.cfg.GeneratorsRoot()),
	}
}

// resolveRoot follows symlinks in path. A root that cannot be resolved is
// returned cleaned; the scan reports it as missing.
func resolveRoot(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// LoadCatalog reads and validates the group files of the config root.
func (r *Runner) LoadCatalog() (*catalog.Catalog, error) {
	precedence, err := catalog.ParsePrecedence(r.cfg.Sort.Precedence)
	if err != nil {
		return nil, err
	}
	specs, err := catalog.ReadDir(r.cfg.Dir)
	if err != nil {
		return nil, err
	}
	return catalog.Load(specs, catalog.WithPrecedence(precedence))
}

// Plan computes the moves a sort would perform without touching the disk.
func (r *Runner) Plan(ctx context.Context) (*Report, error) {
	ctx = logging.WithRunID(ctx, r.newID())
	return r.plan(ctx, true)
}

// Sort runs a full cycle. With dryRun nothing is moved, locked or journaled.
func (r *Runner) Sort(ctx context.Context, dryRun bool) (*Report, error) {
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

	report, err := r.plan(ctx, dryRun)
	if err != nil {
		return nil, err
	}

	var store *journal.Store
	if !dryRun && r.cfg.Journal.Enabled && report.Plan.Effective() {
		store = r.beginJournal(ctx, logger, runID, journal.RunSort)
		if store != nil {
			defer store.Close()
		}
	}

	execution, err := executor.Execute(ctx, report.Plan,
		executor.WithDryRun(dryRun),
		executor.WithWorkers(r.cfg.Sort.Workers),
		executor.WithLogger(r.logger),
	)
	report.Execution = execution
	if store != nil && execution != nil {
		report.Journaled = r.finishJournal(ctx, logger, store, runID, toJournalMoves(execution.Moved()), report.Totals())
	}
	if err != nil {
		return report, err
	}

	logger.Info("sort complete",
		logging.Int("moved", len(execution.Moved())),
		logging.Int("skipped", report.Plan.Count(planner.Skip)),
		logging.Int("collisions", len(report.Plan.Collisions)),
		logging.Int("failed", len(execution.Failures)),
		logging.Int("unassigned", report.Plan.Unassigned),
		logging.Bool("dry_run", dryRun),
	)
	return report, nil
}

func (r *Runner) plan(ctx context.Context, dryRun bool) (*Report, error) {
	logger := logging.WithContext(ctx, r.logger)
	runID, _ := logging.RunIDFromContext(ctx)

	cat, err := r.LoadCatalog()
	if err != nil {
		return nil, err
	}
	for _, s := range cat.Shadowed() {
		logging.WarnWithContext(logger, "plugin listed in several groups", "membership_shadowed",
			logging.Category(s.Category.String()),
			logging.String("plugin", s.Plugin),
			logging.Group(s.Winner.Name),
			logging.String("ignored_group", s.Discarded.Name),
			logging.String(logging.FieldImpact, "earlier group wins"),
		)
	}

	rootMap := r.Roots()
	roots := make([]pluginindex.Root, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		roots = append(roots, pluginindex.Root{Category: category, Path: rootMap[category]})
	}
	idx, err := pluginindex.Scan(ctx, roots,
		pluginindex.WithWorkers(r.cfg.Sort.Workers),
		pluginindex.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}
	for _, w := range idx.Warnings {
		logging.WarnWithContext(logger, "shortcut not indexed", "shortcut_unreadable",
			logging.Path(w.Path),
			logging.Error(w.Err),
		)
	}

	placements := matching.Resolve(idx.Plugins, cat)
	plan, err := planner.Build(placements, rootMap, r.occ)
	if err != nil {
		return nil, fmt.Errorf("plan moves: %w", err)
	}
	for _, c := range plan.Collisions {
		logging.WarnWithContext(logger, "destination already taken", "destination_collision",
			logging.Path(c.Source),
			logging.String("destination", c.Destination),
			logging.String("occupant", c.Occupant),
			logging.Group(c.Group),
		)
	}

	missing := r.missingMembers(cat, idx.Plugins)
	if len(missing) > 0 {
		logger.Info("group members without a shortcut", logging.Int("count", len(missing)))
	}

	return &Report{
		RunID:    runID,
		DryRun:   dryRun,
		Groups:   cat.Len(),
		Shadowed: cat.Shadowed(),
		Plugins:  len(idx.Plugins),
		Warnings: idx.Warnings,
		Summary:  matching.Summary(placements),
		Missing:  missing,
		Plan:     plan,
	}, nil
}

// missingMembers lists group members the scan found no shortcut for, in
// catalog order, noting where FL Studio keeps an installed copy.
func (r *Runner) missingMembers(cat *catalog.Catalog, plugins []pluginindex.Plugin) []MissingMember {
	found := make(map[catalog.Category]map[string]bool, len(catalog.Categories))
	for _, category := range catalog.Categories {
		found[category] = map[string]bool{}
	}
	for _, p := range plugins {
		found[p.Category][p.Identity.Canonical] = true
	}

	var missing []MissingMember
	for _, category := range catalog.Categories {
		for _, g := range cat.Groups(category) {
			for _, member := range g.Members {
				if found[category][shortcut.Canonical(member)] {
					continue
				}
				missing = append(missing, MissingMember{
					Category:  category,
					Group:     g.Name,
					Plugin:    member,
					Installed: r.installedShortcut(category, member),
				})
			}
		}
	}
	return missing
}

// installedShortcut returns <installed_dir>/<category dir>/{VST3,VST}/<name>.fst
// when it exists.
func (r *Runner) installedShortcut(category catalog.Category, name string) string {
	dir := r.cfg.Database.EffectsDir
	if category == catalog.Generator {
		dir = r.cfg.Database.GeneratorsDir
	}
	for _, kind := range []string{"VST3", "VST"} {
		path := filepath.Join(r.cfg.InstalledRoot(), dir, kind, name+shortcut.Extension)
		if ok, err := fileutil.Exists(path); err == nil && ok {
			return path
		}
	}
	return ""
}

// beginJournal opens the journal and records the run start. Journal problems
// are logged and disable journaling for the run; they never stop a sort.
func (r *Runner) beginJournal(ctx context.Context, logger *slog.Logger, runID string, kind journal.RunKind) *journal.Store {
	store, err := journal.Open(r.cfg.Journal.Path)
	if err != nil {
		logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not be recorded; unsort cannot revert it"),
		)
		return nil
	}
	if err := store.BeginRun(ctx, journal.Run{ID: runID, Kind: kind, DatabasePath: r.cfg.Database.Path}); err != nil {
		logging.WarnWithContext(logger, "journal unavailable", "journal_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not be recorded; unsort cannot revert it"),
		)
		_ = store.Close()
		return nil
	}
	return store
}

func (r *Runner) finishJournal(ctx context.Context, logger *slog.Logger, store *journal.Store, runID string, moves []journal.Move, totals journal.Totals) bool {
	// Recording must survive a cancelled run: the moves already happened.
	ctx = context.WithoutCancel(ctx)
	if err := store.RecordMoves(ctx, runID, moves); err != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "unsort cannot revert this run"),
		)
		return false
	}
	if err := store.FinishRun(ctx, runID, totals); err != nil {
		logger.Warn("journal finish failed", logging.Error(err))
	}
	return true
}

func toJournalMoves(ops []planner.Operation) []journal.Move {
	moves := make([]journal.Move, 0, len(ops))
	for _, op := range ops {
		moves = append(moves, journal.Move{
			Source:      op.Source,
			Destination: op.Destination,
			Category:    op.Category.String(),
			Group:       op.Group,
		})
	}
	return moves
}
