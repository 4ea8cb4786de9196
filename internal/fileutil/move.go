package fileutil

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MoveNoClobber renames src to dst, failing with ErrDestinationExists instead
// of replacing an existing dst. Kernels or filesystems without
// RENAME_NOREPLACE fall back to a link-then-unlink sequence, and moves across
// filesystems fall back to a verified copy followed by removal of src.
func MoveNoClobber(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	case errors.Is(err, unix.EXDEV):
		return moveAcrossDevices(src, dst)
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOTSUP):
		return linkThenUnlink(src, dst)
	default:
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
}

// linkThenUnlink relies on link(2) refusing to replace an existing name.
func linkThenUnlink(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		case errors.Is(err, unix.EXDEV):
			return moveAcrossDevices(src, dst)
		default:
			return err
		}
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("remove source after link: %w", err)
	}
	return nil
}

func moveAcrossDevices(src, dst string) error {
	if err := CopyFileVerified(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
