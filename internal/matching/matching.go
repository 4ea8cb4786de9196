// Package matching assigns each located plugin to at most one group.
//
// Resolve is a pure function of its inputs: a plugin whose canonical name is
// not claimed by any group in its category is left Unassigned, which the
// planner treats as "do not touch".
package matching

import (
	"slices"
	"strings"

	"flsorter/internal/catalog"
	"flsorter/internal/pluginindex"
)

// Placement pairs a plugin with its target group. Group is nil when the
// plugin is unassigned.
type Placement struct {
	Plugin pluginindex.Plugin
	Group  *catalog.Group
}

// Assigned reports whether the placement has a target group.
func (p Placement) Assigned() bool {
	return p.Group != nil
}

// Resolve looks up every plugin in the catalog. The result is sorted by path.
func Resolve(plugins []pluginindex.Plugin, cat *catalog.Catalog) []Placement {
	placements := make([]Placement, 0, len(plugins))
	for _, plugin := range plugins {
		placement := Placement{Plugin: plugin}
		if group, ok := cat.Lookup(plugin.Category, plugin.Identity.Canonical); ok {
			placement.Group = group
		}
		placements = append(placements, placement)
	}
	slices.SortStableFunc(placements, func(a, b Placement) int {
		return strings.Compare(a.Plugin.Path, b.Plugin.Path)
	})
	return placements
}

// Counts tallies placements for one category.
type Counts struct {
	Assigned   int
	Unassigned int
}

// Summary counts assigned and unassigned placements per category.
func Summary(placements []Placement) map[catalog.Category]Counts {
	out := make(map[catalog.Category]Counts, len(catalog.Categories))
	for _, p := range placements {
		c := out[p.Plugin.Category]
		if p.Assigned() {
			c.Assigned++
		} else {
			c.Unassigned++
		}
		out[p.Plugin.Category] = c
	}
	return out
}
