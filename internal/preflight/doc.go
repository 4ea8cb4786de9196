// Package preflight provides readiness checks for the filesystem paths that
// flsorter reads and mutates.
//
// These checks run in two contexts:
//   - The sort and unsort pipelines call CheckDatabase before taking the
//     execution lock; a database that is missing or read-only aborts the run
//     before any file is touched.
//   - The CLI "flsorter config validate" command uses RunAll to display the
//     state of every configured directory.
package preflight
