// Package main hosts the flsorter CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves the config root, builds the logger
// and hands off to internal/pipeline for sorting, planning and unsorting. The
// remaining commands manage group files (list, new, generate), show journal
// history and scaffold or validate configuration.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
