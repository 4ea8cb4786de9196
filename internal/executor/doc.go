// Package executor applies a planner.Plan to the filesystem.
//
// Operations are grouped by destination directory. Each directory is handled
// by one goroutine that creates it and then performs its moves in order, while
// different directories proceed concurrently up to the worker limit. Moves
// never replace an existing file, and a failed operation is recorded in the
// Report without stopping other directories. AcquireLock provides the
// database-wide file lock that keeps two flsorter processes from mutating the
// same plugin database at once.
package executor
