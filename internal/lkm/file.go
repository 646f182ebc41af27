// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem operations used to move a temporary file into place.
var (
	linkFile   = os.Link
	renameFile = os.Rename
)

// checkDestination verifies that path can receive a new file.
// A missing path is accepted. An existing path must be a regular
// file, and is only accepted when overwrite is enabled.
func checkDestination(path string, overwrite bool) error {
	fi, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat %s: %w", path, err)
	case !fi.Mode().IsRegular():
		return fmt.Errorf("%w: %s (%s)", ErrUnsafeDestination, path, fi.Mode().Type())
	case !overwrite:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	return nil
}

// writeFileAtomic writes data to path with the given permissions.
//
// The data goes to a temporary file created with mode 0600 in the
// destination directory, which is synced and then moved into place.
// With overwrite enabled the move is a rename, which replaces a symlink
// at the destination instead of following it. Without overwrite the
// temporary file is hard linked to the destination, which fails if the
// destination appeared in the meantime. The temporary file never
// survives the call.
func writeFileAtomic(path string, data []byte, perm os.FileMode, overwrite bool) error {
	if err := checkDestination(path, overwrite); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if !overwrite {
		if err := linkFile(tmpPath, path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
			}
			return fmt.Errorf("failed to move temp file to %s: %w", path, err)
		}
		return nil
	}

	if err := renameFile(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move temp file to %s: %w", path, err)
	}
	renamed = true
	return nil
}
