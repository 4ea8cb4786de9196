package vstscan

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func vendorDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Soundtoys")
	touch(t, filepath.Join(dir, "EchoBoy.dll"))
	touch(t, filepath.Join(dir, "Decapitator.VST3"))
	touch(t, filepath.Join(dir, "EchoBoy.vst3"))
	touch(t, filepath.Join(dir, "readme.txt"))
	touch(t, filepath.Join(dir, "Legacy", "Crystallizer.dll"))
	if err := os.MkdirAll(filepath.Join(dir, "PrimalTap.vst3", "Contents"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "PrimalTap.vst3", "Contents", "inner.dll"))
	return dir
}

func TestNamesTopLevel(t *testing.T) {
	names, err := Names(vendorDir(t), false)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"Decapitator", "EchoBoy", "PrimalTap"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
}

func TestNamesRecursive(t *testing.T) {
	names, err := Names(vendorDir(t), true)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"Crystallizer", "Decapitator", "EchoBoy", "PrimalTap"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
}

func TestNamesEmptyDirectory(t *testing.T) {
	_, err := Names(t.TempDir(), true)
	if !errors.Is(err, ErrNoPlugins) {
		t.Fatalf("expected ErrNoPlugins, got %v", err)
	}
}

func TestNamesRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.dll")
	touch(t, file)
	if _, err := Names(file, false); err == nil {
		t.Fatal("expected error for file argument")
	}
}

func TestGroupName(t *testing.T) {
	if got := GroupName("/plugins/Soundtoys/"); got != "Soundtoys" {
		t.Fatalf("GroupName = %q", got)
	}
}
