// Package file stores the preference record as a JSON file and watches it for
// writes made by other instances.
package file

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Backend implements port.PreferenceBackend on a single file. Saves go
// through a temporary file and a rename, so readers see either the old or the
// new record.
type Backend struct {
	path string

	mu        sync.Mutex
	lastWrite [sha256.Size]byte
	wrote     bool
}

var _ port.PreferenceBackend = (*Backend)(nil)

// NewBackend creates a file backend for path.
func NewBackend(path string) *Backend {
	return &Backend{path: filepath.Clean(path)}
}

// Name implements port.PreferenceBackend.
func (*Backend) Name() string { return "file" }

// Path returns the record's location.
func (b *Backend) Path() string { return b.path }

// Probe implements port.PreferenceBackend. It checks that the directory can be
// created and written to.
func (b *Backend) Probe(context.Context) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %v", entity.ErrStorageUnavailable, dir, err)
	}

	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", entity.ErrStorageUnavailable, dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// Load implements port.PreferenceBackend.
func (b *Backend) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrNoRecord
		}
		return nil, classify("read", err)
	}
	return data, nil
}

// Save implements port.PreferenceBackend.
func (b *Backend) Save(_ context.Context, payload []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return classify("create directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return classify("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return classify("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return classify("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return classify("close temp file", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return classify("chmod temp file", err)
	}

	// Remember the digest before the rename makes the write visible to watchers.
	b.rememberWrite(payload)

	if err := os.Rename(tmpName, b.path); err != nil {
		return classify("rename", err)
	}
	return nil
}

// Delete implements port.PreferenceBackend.
func (b *Backend) Delete(context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classify("remove", err)
	}
	return nil
}

// IsSelfWrite reports whether payload is exactly what this backend wrote last.
func (b *Backend) IsSelfWrite(payload []byte) bool {
	sum := sha256.Sum256(payload)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wrote && sum == b.lastWrite
}

func (b *Backend) rememberWrite(payload []byte) {
	sum := sha256.Sum256(payload)
	b.mu.Lock()
	b.lastWrite = sum
	b.wrote = true
	b.mu.Unlock()
}

// classify marks permission and read-only failures as an unavailable medium.
func classify(op string, err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS) {
		return fmt.Errorf("%w: %s: %v", entity.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
