package entity

import (
	"errors"
	"fmt"
)

// Recoverable conditions. None of them reach consumers of the engine; they are
// returned by adapters and handled locally.
var (
	// ErrStorageCorrupted marks an invalid, partial or foreign record.
	ErrStorageCorrupted = errors.New("stored preference is corrupted")
	// ErrSchemaMismatch marks a record written by another schema version.
	// It wraps ErrStorageCorrupted.
	ErrSchemaMismatch = fmt.Errorf("%w: schema version mismatch", ErrStorageCorrupted)
	// ErrStorageUnavailable marks a medium that cannot be used in this context.
	ErrStorageUnavailable = errors.New("preference storage unavailable")
	// ErrNoRecord is returned by backends when nothing is stored.
	ErrNoRecord = errors.New("no stored preference")
	// ErrDetectionUnsupported marks a platform without an appearance signal.
	ErrDetectionUnsupported = errors.New("appearance signal detection unsupported")
	// ErrSyncParse marks a cross-instance payload that could not be decoded.
	ErrSyncParse = errors.New("malformed sync payload")
)

// Caller errors returned by the engine API.
var (
	ErrInvalidTheme = errors.New("invalid theme")
	ErrEngineClosed = errors.New("theme engine closed")
)
