package fileutil

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.fst")
	dst := filepath.Join(dir, "dst.fst")

	content := make([]byte, 64*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(content))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("content mismatch at byte %d", i)
		}
	}
}

func TestCopyFileVerifiedRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.fst")
	dst := filepath.Join(dir, "dst.fst")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := CopyFileVerified(src, dst)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("destination was modified: %q", got)
	}
}

func TestVerifyFileDetectsChangedCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.fst")
	original := []byte("FLhd shortcut bytes")
	sum := sha256.Sum256(original)

	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyFile(path, int64(len(original)), sum[:]); err != nil {
		t.Fatalf("intact copy rejected: %v", err)
	}

	corrupted := append([]byte(nil), original...)
	corrupted[0] ^= 0xff
	if err := os.WriteFile(path, corrupted, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyFile(path, int64(len(original)), sum[:]); !errors.Is(err, ErrCopyMismatch) {
		t.Fatalf("expected ErrCopyMismatch for flipped byte, got %v", err)
	}

	if err := os.WriteFile(path, original[:4], 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyFile(path, int64(len(original)), sum[:]); !errors.Is(err, ErrCopyMismatch) {
		t.Fatalf("expected ErrCopyMismatch for truncated copy, got %v", err)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFileVerified(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dst")); !os.IsNotExist(statErr) {
		t.Fatal("destination should not be created on failure")
	}
}

func TestMoveNoClobber(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Echo Boy.fst")
	dst := filepath.Join(dir, "Delays", "Echo Boy.fst")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("shortcut"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveNoClobber(src, dst); err != nil {
		t.Fatalf("MoveNoClobber: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "shortcut" {
		t.Fatalf("destination content = %q, %v", got, err)
	}
}

func TestMoveNoClobberKeepsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.fst")
	dst := filepath.Join(dir, "b.fst")
	if err := os.WriteFile(src, []byte("mover"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("occupant"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := MoveNoClobber(src, dst)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "occupant" {
		t.Fatalf("destination overwritten: %q", got)
	}
	if got, _ := os.ReadFile(src); string(got) != "mover" {
		t.Fatalf("source lost: %q", got)
	}
}

func TestLinkThenUnlinkRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.fst")
	dst := filepath.Join(dir, "b.fst")
	if err := os.WriteFile(src, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := linkThenUnlink(src, dst); !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	if err := os.Remove(dst); err != nil {
		t.Fatal(err)
	}
	if err := linkThenUnlink(src, dst); err != nil {
		t.Fatalf("linkThenUnlink: %v", err)
	}
	if ok, _ := Exists(src); ok {
		t.Fatal("source should be gone")
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	for _, d := range []string{empty, full} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(full, "x.fst"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if removed, err := RemoveIfEmpty(empty); err != nil || !removed {
		t.Fatalf("RemoveIfEmpty(empty) = %v, %v", removed, err)
	}
	if removed, err := RemoveIfEmpty(full); err != nil || removed {
		t.Fatalf("RemoveIfEmpty(full) = %v, %v", removed, err)
	}
	if removed, err := RemoveIfEmpty(filepath.Join(dir, "missing")); err != nil || removed {
		t.Fatalf("RemoveIfEmpty(missing) = %v, %v", removed, err)
	}
}
