package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion tags records written by this engine. Records carrying any
// other value are discarded, never migrated in place.
const SchemaVersion = "2"

// Preference is the single durable appearance record.
type Preference struct {
	Mode          ThemeMode `json:"mode" jsonschema:"enum=light,enum=dark,enum=system"`
	SchemaVersion string    `json:"schema_version"`
	LastUpdated   time.Time `json:"last_updated" jsonschema:"format=date-time"`
	// SystemDetected is true when Mode was last set by adopting the OS signal.
	SystemDetected bool `json:"system_detected"`
	// UserSet is true once the user has made an explicit choice. It disables
	// OS signal adoption until the record is cleared.
	UserSet bool `json:"user_set"`
}

// NewUserPreference returns the record written by an explicit user choice.
func NewUserPreference(mode ThemeMode, at time.Time) Preference {
	return Preference{
		Mode:           mode,
		SchemaVersion:  SchemaVersion,
		LastUpdated:    at,
		SystemDetected: false,
		UserSet:        true,
	}
}

// NewDetectedPreference returns the record written when the OS signal is adopted.
func NewDetectedPreference(value ThemeValue, at time.Time) Preference {
	return Preference{
		Mode:           ModeFor(value),
		SchemaVersion:  SchemaVersion,
		LastUpdated:    at,
		SystemDetected: true,
		UserSet:        false,
	}
}

// NewDefaultPreference returns the record written when falling back to DefaultTheme.
func NewDefaultPreference(at time.Time) Preference {
	return Preference{
		Mode:          ModeFor(DefaultTheme),
		SchemaVersion: SchemaVersion,
		LastUpdated:   at,
	}
}

// Displayed resolves the value to show given the current OS signal.
// System mode follows the signal and falls back to DefaultTheme when it is Unknown.
func (p Preference) Displayed(signal ThemeValue) ThemeValue {
	if v, ok := p.Mode.Concrete(); ok {
		return v
	}
	return signal.OrDefault()
}

// NewerThan reports whether p was written strictly after other.
func (p Preference) NewerThan(other Preference) bool {
	return p.LastUpdated.After(other.LastUpdated)
}

// Validate checks the structural invariants of a record.
func (p Preference) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: invalid mode %q", ErrStorageCorrupted, p.Mode)
	}
	if p.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrSchemaMismatch, p.SchemaVersion, SchemaVersion)
	}
	if p.LastUpdated.IsZero() {
		return fmt.Errorf("%w: missing last_updated", ErrStorageCorrupted)
	}
	return nil
}

// wirePreference mirrors Preference with pointer fields so missing keys are detectable.
type wirePreference struct {
	Mode           *string `json:"mode"`
	SchemaVersion  *string `json:"schema_version"`
	LastUpdated    *string `json:"last_updated"`
	SystemDetected *bool   `json:"system_detected"`
	UserSet        *bool   `json:"user_set"`
}

// EncodePreference serializes p. Whole records are always written; there is
// no partial update format.
func EncodePreference(p Preference) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(wirePreference{
		Mode:           ptr(string(p.Mode)),
		SchemaVersion:  ptr(p.SchemaVersion),
		LastUpdated:    ptr(p.LastUpdated.UTC().Format(time.RFC3339Nano)),
		SystemDetected: ptr(p.SystemDetected),
		UserSet:        ptr(p.UserSet),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode preference: %w", err)
	}
	return data, nil
}

// DecodePreference parses and validates a stored record. Every field is
// required. Errors wrap ErrStorageCorrupted.
func DecodePreference(data []byte) (Preference, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Preference{}, fmt.Errorf("%w: empty payload", ErrStorageCorrupted)
	}

	var w wirePreference
	if err := json.Unmarshal(data, &w); err != nil {
		return Preference{}, fmt.Errorf("%w: %v", ErrStorageCorrupted, err)
	}

	switch {
	case w.Mode == nil:
		return Preference{}, fmt.Errorf("%w: missing mode", ErrStorageCorrupted)
	case w.SchemaVersion == nil:
		return Preference{}, fmt.Errorf("%w: missing schema_version", ErrStorageCorrupted)
	case w.LastUpdated == nil:
		return Preference{}, fmt.Errorf("%w: missing last_updated", ErrStorageCorrupted)
	case w.SystemDetected == nil:
		return Preference{}, fmt.Errorf("%w: missing system_detected", ErrStorageCorrupted)
	case w.UserSet == nil:
		return Preference{}, fmt.Errorf("%w: missing user_set", ErrStorageCorrupted)
	}

	updated, err := time.Parse(time.RFC3339Nano, *w.LastUpdated)
	if err != nil {
		return Preference{}, fmt.Errorf("%w: last_updated: %v", ErrStorageCorrupted, err)
	}

	p := Preference{
		Mode:           ThemeMode(*w.Mode),
		SchemaVersion:  *w.SchemaVersion,
		LastUpdated:    updated,
		SystemDetected: *w.SystemDetected,
		UserSet:        *w.UserSet,
	}
	if err := p.Validate(); err != nil {
		return Preference{}, err
	}
	return p, nil
}

func ptr[T any](v T) *T { return &v }
