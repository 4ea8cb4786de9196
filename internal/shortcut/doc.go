// Package shortcut decodes the binary plugin shortcut files (.fst) stored in
// the plugin database.
//
// A shortcut starts with a fixed "FLhd" header that carries the format
// version and plugin kind, followed by an "FLdt" data chunk whose first field
// is the length-prefixed plugin name. Parse is a pure function over the byte
// buffer: it never panics, and every failure is reported as one of the
// sentinel errors so callers can classify a file with errors.Is and keep
// going. The canonical (case-folded, trimmed) name it returns is the only key
// used when matching plugins to groups.
package shortcut
