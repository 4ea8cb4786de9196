// Package logging assembles structured slog loggers and attribute helpers used
// across flsorter.
//
// It owns the console and JSON handlers, level parsing and output plumbing, and
// exposes context-aware helpers so every line emitted during a sort run carries
// the run identifier. NewNop provides a silent logger for tests and for wiring
// code that runs before configuration is available.
package logging
