// Package storage
// Author: momentics <momentics@gmail.com>

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/momentics/relaybot/api"
)

var _ api.Backend[struct{}] = (*FileBackend[struct{}])(nil)

// FileBackend keeps the state in one file.
type FileBackend[S any] struct {
	path string
	perm os.FileMode
}

// NewFileBackend returns a backend bound to path. The file is created on the
// first Save.
func NewFileBackend[S any](path string) *FileBackend[S] {
	return &FileBackend[S]{path: path, perm: 0o644}
}

// Path returns the file location.
func (b *FileBackend[S]) Path() string { return b.path }

// Load reads and decodes the file.
func (b *FileBackend[S]) Load() (S, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		var zero S
		if errors.Is(err, fs.ErrNotExist) {
			return zero, fmt.Errorf("%s: %w", b.path, api.ErrStateNotFound)
		}
		return zero, fmt.Errorf("%s: %w", b.path, err)
	}
	return Decode[S](data)
}

// Save encodes state and replaces the file atomically.
func (b *FileBackend[S]) Save(state *S) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("%s: %w", b.path, err)
	}
	if err := atomicWriteFile(b.path, data, b.perm); err != nil {
		return fmt.Errorf("%s: %w", b.path, err)
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend[S]) Close() error { return nil }

// ExecutablePath resolves name next to the running executable.
func ExecutablePath(name string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name), nil
}

// atomicWriteFile writes data to a temporary file in the target directory and
// renames it over path, so a crash mid-write never leaves a truncated file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
