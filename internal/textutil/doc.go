// Package textutil turns user supplied names into strings that are safe to
// use as file and folder names inside the plugin database and config root.
package textutil
