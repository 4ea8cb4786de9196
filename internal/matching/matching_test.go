package matching_test

import (
	"testing"

	"flsorter/internal/catalog"
	"flsorter/internal/matching"
	"flsorter/internal/pluginindex"
	"flsorter/internal/shortcut"
)

func plugin(path, name string, category catalog.Category) pluginindex.Plugin {
	return pluginindex.Plugin{
		Path:     path,
		Category: category,
		Identity: shortcut.Identity{Name: name, Canonical: shortcut.Canonical(name)},
	}
}

func TestResolveAssignsByCategoryAndName(t *testing.T) {
	cat, err := catalog.Load([]catalog.Spec{
		{Name: "Delays", Category: catalog.Effect, Members: []string{"Echo Boy"}},
		{Name: "Synths", Category: catalog.Generator, Members: []string{"Serum"}},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	placements := matching.Resolve([]pluginindex.Plugin{
		plugin("/db/Generators/Serum.fst", "serum", catalog.Generator),
		plugin("/db/Effects/Echo Boy.fst", "echo boy", catalog.Effect),
		plugin("/db/Effects/Serum.fst", "Serum", catalog.Effect),
		plugin("/db/Effects/Unknown.fst", "Unknown", catalog.Effect),
	}, cat)

	if len(placements) != 4 {
		t.Fatalf("expected one placement per plugin, got %d", len(placements))
	}
	want := map[string]string{
		"/db/Effects/Echo Boy.fst": "Delays",
		"/db/Effects/Serum.fst":    "",
		"/db/Effects/Unknown.fst":  "",
		"/db/Generators/Serum.fst": "Synths",
	}
	for i, p := range placements {
		if i > 0 && placements[i-1].Plugin.Path > p.Plugin.Path {
			t.Fatalf("placements not sorted by path")
		}
		got := ""
		if p.Assigned() {
			got = p.Group.Name
		}
		if got != want[p.Plugin.Path] {
			t.Fatalf("%s: got group %q want %q", p.Plugin.Path, got, want[p.Plugin.Path])
		}
	}

	summary := matching.Summary(placements)
	if summary[catalog.Effect].Assigned != 1 || summary[catalog.Effect].Unassigned != 2 {
		t.Fatalf("unexpected effect summary: %+v", summary[catalog.Effect])
	}
	if summary[catalog.Generator].Assigned != 1 {
		t.Fatalf("unexpected generator summary: %+v", summary[catalog.Generator])
	}
}

func TestResolvePrefersFirstLoadedGroup(t *testing.T) {
	cat, err := catalog.Load([]catalog.Spec{
		{Name: "A", Category: catalog.Effect, Members: []string{"X"}},
		{Name: "B", Category: catalog.Effect, Members: []string{"X"}},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 5; i++ {
		placements := matching.Resolve([]pluginindex.Plugin{plugin("/db/Effects/X.fst", "x", catalog.Effect)}, cat)
		if placements[0].Group == nil || placements[0].Group.Name != "A" {
			t.Fatalf("expected X in group A, got %+v", placements[0].Group)
		}
	}
}
