// Package journal records executed sort runs and their moves in SQLite.
//
// The journal is an audit trail: sorting never reads it, so a missing or
// deleted journal only loses history and the ability to unsort. Each run is
// keyed by a UUID that also appears in log lines as run_id. Unsort replays
// the recorded moves of a database in reverse order and marks each reverted
// move so it is not replayed twice.
package journal
