package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flsorter/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatable(t *testing.T) {
	dir := t.TempDir()

	if r := CheckCreatable("journal", filepath.Join(dir, "a", "b", "journal.db")); !r.Passed {
		t.Fatalf("expected nested path under temp dir to be creatable: %s", r.Detail)
	}

	existing := filepath.Join(dir, "journal.db")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckCreatable("journal", existing); !r.Passed {
		t.Fatalf("expected existing file to pass: %s", r.Detail)
	}

	if r := CheckCreatable("journal", filepath.Join(existing, "child.db")); r.Passed {
		t.Fatal("expected failure when parent is a file")
	}
}

func TestRunAllAndRequire(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Database.Path = t.TempDir()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")

	results := RunAll(&cfg)
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	var installed *Result
	for i := range results {
		if results[i].Name == "Installed plugins" {
			installed = &results[i]
		}
	}
	if installed == nil || !installed.Optional || installed.Passed {
		t.Fatalf("expected an optional, failing installed plugins check, got %+v", installed)
	}
	if err := Require(results); err != nil {
		t.Fatalf("optional failures must not block: %v", err)
	}

	cfg.Database.Path = filepath.Join(t.TempDir(), "missing")
	err := Require(CheckDatabase(&cfg))
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if !strings.Contains(err.Error(), "Plugin database") {
		t.Fatalf("expected check name in error, got %v", err)
	}
}

func TestRunAllSkipsDisabledJournal(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Database.Path = t.TempDir()
	cfg.Journal.Enabled = false
	for _, r := range RunAll(&cfg) {
		if r.Name == "Journal" {
			t.Fatal("journal check should be skipped when disabled")
		}
	}
}
