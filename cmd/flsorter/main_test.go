package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flsorter/internal/catalog"
	"flsorter/internal/config"
	"flsorter/internal/testsupport"
)

type cliTestEnv struct {
	cfg       *config.Config
	configDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("FLSORTER_DATABASE", "")

	cfg := testsupport.NewConfig(t)
	writeTestConfig(t, cfg)
	return &cliTestEnv{cfg: cfg, configDir: cfg.Dir}
}

func writeTestConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[database]\npath = %q\n\n[sort]\nworkers = 2\n\n[journal]\nenabled = %t\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Database.Path,
		cfg.Journal.Enabled,
		cfg.Journal.Path,
	)
	if err := os.WriteFile(config.SamplePath(cfg.Dir), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configDir string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configDir != "" {
		flags = append(flags, "--config-dir", configDir)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLISortMovesAndReports(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Effect, "delays", "Delays", "Echo Boy")
	testsupport.WriteShortcut(t, filepath.Join(env.cfg.EffectsRoot(), "Echo Boy.fst"), "Echo Boy")
	testsupport.WriteShortcut(t, filepath.Join(env.cfg.EffectsRoot(), "Fruity Limiter.fst"), "Fruity Limiter")

	out, _, err := runCLI(t, []string{"sort", "--dry-run"}, env.configDir)
	if err != nil {
		t.Fatalf("sort --dry-run: %v", err)
	}
	requireContains(t, out, "Would move 1 plugin")
	if !testsupport.Exists(t, filepath.Join(env.cfg.EffectsRoot(), "Echo Boy.fst")) {
		t.Fatal("dry run moved a file")
	}

	out, _, err = runCLI(t, []string{"sort"}, env.configDir)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	requireContains(t, out, "Moved 1 plugin")
	requireContains(t, out, "1 grouped, 1 ungrouped")
	requireContains(t, out, "Recorded as run")
	if !testsupport.Exists(t, filepath.Join(env.cfg.EffectsRoot(), "Delays", "Echo Boy.fst")) {
		t.Fatal("Echo Boy was not moved")
	}

	out, _, err = runCLI(t, []string{"sort"}, env.configDir)
	if err != nil {
		t.Fatalf("second sort: %v", err)
	}
	requireContains(t, out, "Moved 0 plugins (1 already in place)")
}

func TestCLISortJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Generator, "synths", "Synths", "Serum")
	testsupport.WriteShortcut(t, filepath.Join(env.cfg.GeneratorsRoot(), "Serum.fst"), "Serum")
	testsupport.WriteRaw(t, filepath.Join(env.cfg.GeneratorsRoot(), "broken.fst"), []byte("FLhd"))

	out, _, err := runCLI(t, []string{"sort", "--json"}, env.configDir)
	if err != nil {
		t.Fatalf("sort --json: %v", err)
	}
	var view sortView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if view.Moved != 1 || view.DryRun || !view.Journaled {
		t.Fatalf("unexpected view: %+v", view)
	}
	if len(view.Operations) != 2 {
		t.Fatalf("expected mkdir and move, got %+v", view.Operations)
	}
	mkdir, move := view.Operations[0], view.Operations[1]
	if mkdir.Kind != "mkdir" || mkdir.Destination != filepath.Join(env.cfg.GeneratorsRoot(), "Synths") {
		t.Fatalf("expected group folder creation first, got %+v", mkdir)
	}
	if move.Kind != "move" || move.Group != "Synths" || move.Destination != filepath.Join(env.cfg.GeneratorsRoot(), "Synths", "Serum.fst") {
		t.Fatalf("unexpected move: %+v", move)
	}
	if len(view.Warnings) != 1 {
		t.Fatalf("expected 1 warning for the corrupt file, got %+v", view.Warnings)
	}
	if view.Summary["generator"].Assigned != 1 {
		t.Fatalf("unexpected summary: %+v", view.Summary)
	}
}

func TestCLIPlanDoesNotMove(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Effect, "delays", "Delays", "Echo Boy")
	source := filepath.Join(env.cfg.EffectsRoot(), "Echo Boy.fst")
	testsupport.WriteShortcut(t, source, "Echo Boy")

	out, _, err := runCLI(t, []string{"plan"}, env.configDir)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Op\tCategory\tGroup\tSource\tDestination")
	requireContains(t, out, "move\teffect\tDelays\t"+filepath.Join("Effects", "Echo Boy.fst"))
	if !testsupport.Exists(t, source) {
		t.Fatal("plan moved a file")
	}
}

func TestCLIPlanListsMissingMembers(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Generator, "synths", "Synths", "Sylenth1", "Massive")
	installed := filepath.Join(env.cfg.InstalledRoot(), env.cfg.Database.GeneratorsDir, "VST3", "Sylenth1.fst")
	testsupport.WriteShortcut(t, installed, "Sylenth1")

	out, _, err := runCLI(t, []string{"plan"}, env.configDir)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "2 plugins in groups but not in the database:")
	requireContains(t, out, "Sylenth1 (generator Synths): installed at "+filepath.Join("Installed", "Generators", "VST3", "Sylenth1.fst"))
	requireContains(t, out, "Massive (generator Synths): not installed")
}

func TestCLIUnsortRestores(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Effect, "delays", "Delays", "Echo Boy")
	source := filepath.Join(env.cfg.EffectsRoot(), "Echo Boy.fst")
	testsupport.WriteShortcut(t, source, "Echo Boy")

	if _, _, err := runCLI(t, []string{"sort"}, env.configDir); err != nil {
		t.Fatalf("sort: %v", err)
	}
	out, _, err := runCLI(t, []string{"unsort"}, env.configDir)
	if err != nil {
		t.Fatalf("unsort: %v", err)
	}
	requireContains(t, out, "Restored 1 plugin")
	requireContains(t, out, "Removed 1 empty group folder")
	if !testsupport.Exists(t, source) {
		t.Fatal("Echo Boy not restored")
	}
	if testsupport.Exists(t, filepath.Join(env.cfg.EffectsRoot(), "Delays")) {
		t.Fatal("empty group folder left behind")
	}
}

func TestCLIHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteGroup(t, env.cfg, catalog.Effect, "delays", "Delays", "Echo Boy")
	testsupport.WriteShortcut(t, filepath.Join(env.cfg.EffectsRoot(), "Echo Boy.fst"), "Echo Boy")

	out, _, err := runCLI(t, []string{"history"}, env.configDir)
	if err != nil {
		t.Fatalf("history (empty): %v", err)
	}
	requireContains(t, out, "No runs recorded yet")

	if _, _, err := runCLI(t, []string{"sort"}, env.configDir); err != nil {
		t.Fatalf("sort: %v", err)
	}
	out, _, err = runCLI(t, []string{"history", "--json"}, env.configDir)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Kind != "sort" || runs[0].Moved != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history", "--run", runs[0].ID}, env.configDir)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "Delays\t"+filepath.Join("Effects", "Echo Boy.fst"))

	if _, _, err := runCLI(t, []string{"history", "--run", "missing"}, env.configDir); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestCLIHistoryRequiresJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"history"}, cfg.Dir)
	if err == nil || !strings.Contains(err.Error(), "journal is disabled") {
		t.Fatalf("expected journal disabled error, got %v", err)
	}
}

func TestCLINewAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"new", "--name", "Delays", "--type", "effects", "Echo Boy", "H-Delay", "echo boy"}, env.configDir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	requireContains(t, out, "Saved 2 effect plugins to "+filepath.Join("effect", "delays.toml"))

	if _, _, err := runCLI(t, []string{"new", "--name", "Delays", "--type", "effect", "Other"}, env.configDir); err == nil {
		t.Fatal("expected error when group file exists")
	}
	if _, _, err := runCLI(t, []string{"new", "--name", "Delays", "--type", "bass", "Other"}, env.configDir); err == nil {
		t.Fatal("expected error for unknown type")
	}

	out, _, err = runCLI(t, []string{"list", "--members"}, env.configDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "effect\tDelays\t2\t"+filepath.Join("effect", "delays.toml")+"\tEcho Boy, H-Delay")

	out, _, err = runCLI(t, []string{"list", "--json", "--type", "generator"}, env.configDir)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var groups []groupView
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no generator groups, got %+v", groups)
	}
}

func TestCLIGenerateFromVSTFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	vstDir := filepath.Join(t.TempDir(), "Xfer")
	testsupport.WriteRaw(t, filepath.Join(vstDir, "Serum.dll"), []byte("x"))
	testsupport.WriteRaw(t, filepath.Join(vstDir, "SerumFX.vst3"), []byte("x"))
	testsupport.WriteRaw(t, filepath.Join(vstDir, "readme.txt"), []byte("x"))

	out, _, err := runCLI(t, []string{"generate", vstDir, "--effect", "serumfx"}, env.configDir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Saved 1 effect plugin to "+filepath.Join("effect", "xfer.toml"))
	requireContains(t, out, "Saved 1 generator plugin to "+filepath.Join("generator", "xfer.toml"))

	out, _, err = runCLI(t, []string{"list", "--json"}, env.configDir)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var groups []groupView
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", groups)
	}
	if groups[0].Category != "effect" || groups[0].Name != "Xfer" || groups[0].Plugins[0] != "SerumFX" {
		t.Fatalf("unexpected effect group: %+v", groups[0])
	}
	if groups[1].Category != "generator" || groups[1].Plugins[0] != "Serum" {
		t.Fatalf("unexpected generator group: %+v", groups[1])
	}

	empty := t.TempDir()
	if _, _, err := runCLI(t, []string{"generate", empty}, env.configDir); err == nil {
		t.Fatal("expected error for folder without plugins")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configDir)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+config.SamplePath(env.configDir))
	requireContains(t, out, "Configuration valid")

	target := t.TempDir()
	out, _, err = runCLI(t, []string{"config", "init"}, target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(filepath.Join(target, "config.toml")); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	for _, dir := range []string{"effect", "generator"} {
		if info, err := os.Stat(filepath.Join(target, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s group folder: %v", dir, err)
		}
	}

	if _, _, err := runCLI(t, []string{"config", "init"}, target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--overwrite"}, target); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateFailsWithoutDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.cfg.Database.Path); err != nil {
		t.Fatalf("remove database: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configDir)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	requireContains(t, out, "FAIL")
}
