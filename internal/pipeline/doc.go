// Package pipeline runs complete sort and unsort cycles against a configured
// plugin database.
//
// A sort cycle reads the group catalog, scans the category roots, resolves
// each plugin's group, plans the moves and executes them while holding the
// database lock. Every cycle gets a run id that tags its log lines and its
// journal entries. Catalog and config problems abort the cycle before any
// file is touched; per-file problems are collected in the Report.
//
// Unsort replays the journal backwards, returning files to where they were
// before flsorter moved them and removing group folders left empty.
package pipeline
