// Package fileutil provides filesystem helpers for robust file operations
// on the vault's sealed wallet blob and the launch registry's append log.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// ErrPermTooPermissive indicates a caller asked to persist secret
// material (a sealed vault blob, an exported backup) with a file mode
// wider than owner-read/write.
var ErrPermTooPermissive = errors.New("permission mode too permissive for secret material")

// secretFilePerm is the only mode WriteAtomicSecret will ever create a
// file with: owner read/write, nothing for group or other. A vault
// blob is ciphertext, but the encryption password is operator-chosen
// and may be weak, so the file itself stays off-limits at the
// filesystem layer too.
const secretFilePerm = 0o600

// WriteAtomicSecret writes data to path the same way WriteAtomic does,
// but refuses requestedPerm if it grants any access beyond the owner,
// always writing with secretFilePerm regardless. Use this for the
// vault's sealed blob and exported backups; use WriteAtomic directly
// for non-secret bookkeeping files like the launch registry.
func WriteAtomicSecret(path string, data []byte, requestedPerm os.FileMode) error {
	if requestedPerm&0o077 != 0 {
		return fmt.Errorf("%w: requested %#o", ErrPermTooPermissive, requestedPerm)
	}
	return WriteAtomic(path, data, secretFilePerm)
}

// WriteAtomic writes data to path atomically with the provided permissions.
// It writes to a temp file in the same directory, fsyncs, then renames.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmpFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is validated by caller, not from user input
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best effort directory sync for rename durability.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}
