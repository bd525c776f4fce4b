// Package fileutils provides low-level primitives for durable, permission-
// restricted file writes used by the filesystem secret store backend.
package fileutils

import (
	"fmt"
	"os"
)

// AtomicWriteFile writes data to path with the given permissions such that
// concurrent readers never observe a partial write: the content lands in a
// same-directory temp file with a ".tmp" suffix, which is then renamed over
// the target. Rename is atomic on POSIX filesystems and on NTFS.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// EnsureDir creates dir (and any missing parents) with the given permissions
// if it does not already exist.
func EnsureDir(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
