package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run row. StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is empty")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, kind, database_path, started_at) VALUES (?, ?, ?, ?)`,
		run.ID,
		string(run.Kind),
		run.DatabasePath,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordMoves stores executed moves for a run in one transaction.
func (s *Store) RecordMoves(ctx context.Context, runID string, moves []Move) error {
	if len(moves) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin moves tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO moves (run_id, source, destination, category, group_name, moved_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare move insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range moves {
		movedAt := m.MovedAt
		if movedAt.IsZero() {
			movedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			runID,
			m.Source,
			m.Destination,
			nullableString(m.Category),
			nullableString(m.Group),
			formatTime(movedAt),
		); err != nil {
			return fmt.Errorf("insert move %s: %w", m.Source, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit moves: %w", err)
	}
	return nil
}

// FinishRun stores the totals and completion time of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, totals Totals) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET finished_at = ?, moved = ?, skipped = ?, collisions = ?, failed = ?, warnings = ?, unassigned = ?
         WHERE id = ?`,
		formatTime(time.Now()),
		totals.Moved,
		totals.Skipped,
		totals.Collisions,
		totals.Failed,
		totals.Warnings,
		totals.Unassigned,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Moves returns the moves recorded for a run in execution order.
func (s *Store) Moves(ctx context.Context, runID string) ([]Move, error) {
	return s.queryMoves(ctx, `SELECT `+moveColumns+` FROM moves WHERE run_id = ? ORDER BY id`, runID)
}

// PendingMoves returns the unreverted moves of sort runs against
// databasePath, newest first, which is the order unsort must replay them in.
func (s *Store) PendingMoves(ctx context.Context, databasePath string) ([]Move, error) {
	return s.queryMoves(ctx,
		`SELECT `+prefixed("m.", moveColumns)+`
         FROM moves m JOIN runs r ON r.id = m.run_id
         WHERE r.kind = ? AND r.database_path = ? AND m.reverted_at IS NULL
         ORDER BY m.id DESC`,
		string(RunSort), databasePath)
}

// MarkReverted flags a move as undone.
func (s *Store) MarkReverted(ctx context.Context, moveID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE moves SET reverted_at = ? WHERE id = ? AND reverted_at IS NULL`,
		formatTime(time.Now()), moveID)
	if err != nil {
		return fmt.Errorf("mark move %d reverted: %w", moveID, err)
	}
	return nil
}

func (s *Store) queryMoves(ctx context.Context, query string, args ...any) ([]Move, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}
