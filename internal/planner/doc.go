// Package planner turns placements into an ordered list of filesystem
// operations.
//
// Build never touches the disk itself: the caller supplies an Occupancy that
// answers whether a destination path is taken. Plans are idempotent (a plugin
// already in its group folder yields Skip), never overwrite (a taken
// destination yields a Collision and no operation for that plugin) and
// deterministic (claims are resolved in-place first, then by source path).
// Every CreateDirIfMissing precedes the moves into its directory.
package planner
