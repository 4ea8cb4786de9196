package journal

import "time"

// RunKind distinguishes sorting runs from unsort runs.
type RunKind string

const (
	RunSort   RunKind = "sort"
	RunUnsort RunKind = "unsort"
)

// Run is one invocation that mutated a plugin database. Dry runs are never
// recorded.
type Run struct {
	ID           string
	Kind         RunKind
	DatabasePath string
	StartedAt    time.Time
	FinishedAt   time.Time
	Totals
}

// Totals summarises the outcome of a run.
type Totals struct {
	Moved      int
	Skipped    int
	Collisions int
	Failed     int
	Warnings   int
	Unassigned int
}

// Move is a single executed rename.
type Move struct {
	ID          int64
	RunID       string
	Source      string
	Destination string
	Category    string
	Group       string
	MovedAt     time.Time
	RevertedAt  time.Time
}

// Reverted reports whether unsort already moved the file back.
func (m Move) Reverted() bool {
	return !m.RevertedAt.IsZero()
}
