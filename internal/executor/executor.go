package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"flsorter/internal/fileutil"
	"flsorter/internal/logging"
	"flsorter/internal/planner"
)

// ExecError is a failed operation.
type ExecError struct {
	Op  planner.Operation
	Err error
}

func (e ExecError) Error() string {
	if e.Op.Kind == planner.CreateDirIfMissing {
		return fmt.Sprintf("mkdir %s: %v", e.Op.Destination, e.Err)
	}
	return fmt.Sprintf("move %s -> %s: %v", e.Op.Source, e.Op.Destination, e.Err)
}

func (e ExecError) Unwrap() error { return e.Err }

// Report summarises an execution. Completed lists operations that took effect
// (or, in dry-run mode, would have) in plan order per directory.
type Report struct {
	Completed []planner.Operation
	Failures  []ExecError
	Skipped   int
	DryRun    bool
}

// Moved returns the completed Move operations.
func (r *Report) Moved() []planner.Operation {
	if r == nil {
		return nil
	}
	var moves []planner.Operation
	for _, op := range r.Completed {
		if op.Kind == planner.Move {
			moves = append(moves, op)
		}
	}
	return moves
}

type options struct {
	workers int
	dryRun  bool
	logger  *slog.Logger
	move    func(src, dst string) error
}

// Option customizes Execute.
type Option func(*options)

// WithWorkers bounds how many directories are processed at once. Values <= 0 use NumCPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithDryRun reports the plan as executed without touching the filesystem.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type batch struct {
	dir string
	ops []planner.Operation
}

type batchResult struct {
	completed []planner.Operation
	failures  []ExecError
}

// Execute applies plan. Callers hold the database lock (see AcquireLock) from
// before the plan was computed until Execute returns. The returned error is
// non-nil only when ctx was cancelled; per-operation failures are reported in
// Report.Failures.
func Execute(ctx context.Context, plan *planner.Plan, opts ...Option) (*Report, error) {
	o := options{move: fileutil.MoveNoClobber}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(o.logger, "executor"))

	report := &Report{DryRun: o.dryRun}
	if plan == nil {
		return report, nil
	}

	batches := groupByDirectory(plan.Operations)
	report.Skipped = plan.Count(planner.Skip)

	if o.dryRun {
		for _, b := range batches {
			report.Completed = append(report.Completed, b.ops...)
		}
		return report, nil
	}

	results := make([]batchResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, b := range batches {
		g.Go(func() error {
			res, err := runBatch(gctx, b, o.move, logger)
			results[i] = res
			return err
		})
	}
	waitErr := g.Wait()

	for _, res := range results {
		report.Completed = append(report.Completed, res.completed...)
		report.Failures = append(report.Failures, res.failures...)
	}
	if waitErr != nil {
		return report, waitErr
	}
	logger.Debug("plan executed",
		logging.Int("completed", len(report.Completed)),
		logging.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// groupByDirectory keeps plan order: directories in the order they first
// appear, operations in plan order within each directory.
func groupByDirectory(ops []planner.Operation) []batch {
	index := map[string]int{}
	var batches []batch
	for _, op := range ops {
		var dir string
		switch op.Kind {
		case planner.CreateDirIfMissing:
			dir = filepath.Clean(op.Destination)
		case planner.Move:
			dir = filepath.Dir(op.Destination)
		default:
			continue
		}
		i, ok := index[dir]
		if !ok {
			i = len(batches)
			index[dir] = i
			batches = append(batches, batch{dir: dir})
		}
		batches[i].ops = append(batches[i].ops, op)
	}
	return batches
}

func runBatch(ctx context.Context, b batch, move func(src, dst string) error, logger *slog.Logger) (batchResult, error) {
	var (
		res    batchResult
		dirErr error
	)
	for _, op := range b.ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch op.Kind {
		case planner.CreateDirIfMissing:
			if err := os.MkdirAll(op.Destination, 0o755); err != nil {
				dirErr = err
				res.failures = append(res.failures, ExecError{Op: op, Err: err})
				logger.Warn("create group directory failed",
					logging.Path(op.Destination),
					logging.Error(err),
				)
				continue
			}
			res.completed = append(res.completed, op)
		case planner.Move:
			if dirErr != nil {
				res.failures = append(res.failures, ExecError{Op: op, Err: fmt.Errorf("destination directory unavailable: %w", dirErr)})
				continue
			}
			if err := move(op.Source, op.Destination); err != nil {
				if errors.Is(err, fileutil.ErrDestinationExists) {
					err = fmt.Errorf("%w: %w", planner.ErrDestinationCollision, err)
				}
				res.failures = append(res.failures, ExecError{Op: op, Err: err})
				logging.WarnWithContext(logger, "move failed", "move_failed",
					logging.Path(op.Source),
					logging.String("destination", op.Destination),
					logging.Error(err),
				)
				continue
			}
			res.completed = append(res.completed, op)
			logger.Info("plugin moved",
				logging.Path(op.Source),
				logging.Group(op.Group),
				logging.Category(op.Category.String()),
			)
		}
	}
	return res, nil
}
