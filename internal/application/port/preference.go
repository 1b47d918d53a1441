package port

import (
	"context"

	"github.com/bnema/themesync/internal/domain/entity"
)

// PreferenceBackend is a raw durable medium holding one encoded record.
// Implementations wrap entity.ErrStorageUnavailable when the medium cannot be used.
type PreferenceBackend interface {
	// Name identifies the backend in logs and status output.
	Name() string

	// Probe checks that the medium is usable in this execution context.
	Probe(ctx context.Context) error

	// Load returns the stored payload, or entity.ErrNoRecord.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the whole payload atomically.
	Save(ctx context.Context, payload []byte) error

	// Delete removes the payload. Deleting a missing record is not an error.
	Delete(ctx context.Context) error
}

// PreferenceStore is the corruption-tolerant view of the durable record.
// None of its methods fail: every failure degrades to a deterministic result.
type PreferenceStore interface {
	// Read returns the valid stored record. Invalid or mismatched records are
	// cleared and reported absent (ok == false).
	Read(ctx context.Context) (pref entity.Preference, ok bool)

	// Write replaces the record before returning.
	Write(ctx context.Context, pref entity.Preference)

	// Clear removes the record.
	Clear(ctx context.Context)

	// Degraded reports that the store fell back to memory-only operation.
	Degraded() bool
}

// SyncChannel republishes records written by other running instances.
type SyncChannel interface {
	// OnExternalWrite registers a callback for foreign writes. Self-writes and
	// unparsable payloads are never delivered.
	OnExternalWrite(callback func(entity.Preference)) Unsubscribe

	// Close stops observing the medium.
	Close() error
}
