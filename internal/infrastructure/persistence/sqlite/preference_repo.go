package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// DefaultKey is the row holding the record when no key is configured.
const DefaultKey = "appearance"

// Backend implements port.PreferenceBackend on one row of the preferences table.
type Backend struct {
	provider port.DatabaseProvider
	key      string

	mu        sync.Mutex
	lastWrite [sha256.Size]byte
	wrote     bool
}

var _ port.PreferenceBackend = (*Backend)(nil)

// NewBackend creates a SQLite-backed preference backend for key.
func NewBackend(provider port.DatabaseProvider, key string) *Backend {
	if key == "" {
		key = DefaultKey
	}
	return &Backend{provider: provider, key: key}
}

// Name implements port.PreferenceBackend.
func (*Backend) Name() string { return "sqlite" }

// Key returns the row key.
func (b *Backend) Key() string { return b.key }

func (b *Backend) db(ctx context.Context) (*sql.DB, error) {
	db, err := b.provider.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStorageUnavailable, err)
	}
	return db, nil
}

// Probe implements port.PreferenceBackend.
func (b *Backend) Probe(ctx context.Context) error {
	db, err := b.db(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStorageUnavailable, err)
	}
	return nil
}

// Load implements port.PreferenceBackend.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	db, err := b.db(ctx)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Trace().Str("key", b.key).Msg("loading preference row")

	var payload string
	err = db.QueryRowContext(ctx, `SELECT payload FROM preferences WHERE key = ?`, b.key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to load preference: %w", err)
	}
	return []byte(payload), nil
}

// Save implements port.PreferenceBackend.
func (b *Backend) Save(ctx context.Context, payload []byte) error {
	db, err := b.db(ctx)
	if err != nil {
		return err
	}

	b.rememberWrite(payload)

	_, err = db.ExecContext(ctx, `
		INSERT INTO preferences (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		b.key, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// Delete implements port.PreferenceBackend.
func (b *Backend) Delete(ctx context.Context) error {
	db, err := b.db(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, b.key); err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// IsSelfWrite reports whether payload is exactly what this backend saved last.
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

// DataVersion returns PRAGMA data_version for the pooled connection.
func (b *Backend) DataVersion(ctx context.Context) (int64, error) {
	db, err := b.db(ctx)
	if err != nil {
		return 0, err
	}
	var v int64
	if err := db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}
