package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDestinationExists reports that a no-clobber operation found its target
// already present.
var ErrDestinationExists = errors.New("destination exists")

// ErrCopyMismatch reports a copy whose on-disk bytes differ from the source.
var ErrCopyMismatch = errors.New("copy does not match source")

// CopyFileVerified streams src to a new file at dst with SHA256 + size
// integrity verification. dst must not exist; it is created with the source
// permissions and removed again on any failure.
func CopyFileVerified(src, dst string) (err error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return err
	}
	defer func() {
		_ = out.Close()
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		return fmt.Errorf("%w: source %d bytes, copied %d bytes", ErrCopyMismatch, srcSize, written)
	}
	return verifyFile(dst, srcSize, srcHasher.Sum(nil))
}

// verifyFile re-reads path from disk and compares its size and SHA256 sum.
func verifyFile(path string, wantSize int64, wantSum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if size != wantSize {
		return fmt.Errorf("%w: expected %d bytes on disk, found %d", ErrCopyMismatch, wantSize, size)
	}
	if !bytes.Equal(hasher.Sum(nil), wantSum) {
		return fmt.Errorf("%w: %s does not hash like its source", ErrCopyMismatch, path)
	}
	return nil
}

// Exists reports whether anything (file, directory or dangling symlink)
// occupies path.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// RemoveIfEmpty deletes dir when it has no entries. It reports whether the
// directory was removed; a missing directory is not an error.
func RemoveIfEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	names, err := f.Readdirnames(1)
	_ = f.Close()
	if len(names) > 0 {
		return false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}
