package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, kind, database_path, started_at, finished_at, moved, skipped, collisions, failed, warnings, unassigned"

const moveColumns = "id, run_id, source, destination, category, group_name, moved_at, reverted_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run         Run
		kind        string
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&kind,
		&run.DatabasePath,
		&startedRaw,
		&finishedRaw,
		&run.Moved,
		&run.Skipped,
		&run.Collisions,
		&run.Failed,
		&run.Warnings,
		&run.Unassigned,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = RunKind(kind)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return run, nil
}

func scanMove(row scanner) (Move, error) {
	var (
		m           Move
		category    sql.NullString
		group       sql.NullString
		movedRaw    string
		revertedRaw sql.NullString
	)
	if err := row.Scan(
		&m.ID,
		&m.RunID,
		&m.Source,
		&m.Destination,
		&category,
		&group,
		&movedRaw,
		&revertedRaw,
	); err != nil {
		return Move{}, fmt.Errorf("scan move: %w", err)
	}
	m.Category = category.String
	m.Group = group.String
	m.MovedAt = parseTime(movedRaw)
	if revertedRaw.Valid {
		m.RevertedAt = parseTime(revertedRaw.String)
	}
	return m, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
