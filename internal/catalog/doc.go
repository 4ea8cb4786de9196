// Package catalog holds the user-authored plugin groups for each category and
// answers which group a plugin belongs to.
//
// Groups are loaded once per run from already-parsed specs, in a caller
// supplied order. Load validates group names, builds a canonical-name index
// per category and applies the membership precedence policy: by default the
// group loaded first claims a plugin listed in several groups, while the
// strict policy rejects such configurations outright. ReadDir and WriteGroup
// translate between specs and the TOML group files under the config root.
package catalog
