package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreference_EncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)
	p := NewUserPreference(ModeDark, at)

	data, err := EncodePreference(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"mode": "dark",
		"schema_version": "2",
		"last_updated": "2026-03-01T10:30:00.123456789Z",
		"system_detected": false,
		"user_set": true
	}`, string(data))

	got, err := DecodePreference(data)
	require.NoError(t, err)
	assert.Equal(t, p.Mode, got.Mode)
	assert.True(t, got.LastUpdated.Equal(at))
	assert.True(t, got.UserSet)
	assert.False(t, got.SystemDetected)
}

func TestDecodePreference_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		mismatch bool
	}{
		{name: "empty", payload: ""},
		{name: "not json", payload: "dark"},
		{name: "truncated", payload: `{"mode":"dark","schema_ver`},
		{
			name:    "missing schema_version",
			payload: `{"mode":"dark","last_updated":"2026-01-01T00:00:00Z","system_detected":false,"user_set":true}`,
		},
		{
			name:    "missing user_set",
			payload: `{"mode":"dark","schema_version":"2","last_updated":"2026-01-01T00:00:00Z","system_detected":false}`,
		},
		{
			name:    "invalid mode",
			payload: `{"mode":"sepia","schema_version":"2","last_updated":"2026-01-01T00:00:00Z","system_detected":false,"user_set":true}`,
		},
		{
			name:    "bad timestamp",
			payload: `{"mode":"dark","schema_version":"2","last_updated":"yesterday","system_detected":false,"user_set":true}`,
		},
		{
			name:     "old schema",
			payload:  `{"mode":"dark","schema_version":"1","last_updated":"2026-01-01T00:00:00Z","system_detected":false,"user_set":true}`,
			mismatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePreference([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStorageCorrupted))
			assert.Equal(t, tt.mismatch, errors.Is(err, ErrSchemaMismatch))
		})
	}
}

func TestPreference_Displayed(t *testing.T) {
	at := time.Now()

	assert.Equal(t, ThemeDark, NewUserPreference(ModeDark, at).Displayed(ThemeLight))
	assert.Equal(t, ThemeLight, NewUserPreference(ModeLight, at).Displayed(ThemeDark))

	system := NewUserPreference(ModeSystem, at)
	assert.Equal(t, ThemeDark, system.Displayed(ThemeDark))
	assert.Equal(t, ThemeLight, system.Displayed(ThemeUnknown))
}

func TestPreference_NewerThan(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := NewDefaultPreference(at)
	newer := NewUserPreference(ModeDark, at.Add(time.Millisecond))

	assert.True(t, newer.NewerThan(older))
	assert.False(t, older.NewerThan(newer))
	assert.False(t, older.NewerThan(older), "equal timestamps are not newer")
}

func TestEncodePreference_RejectsInvalid(t *testing.T) {
	_, err := EncodePreference(Preference{Mode: ModeDark, SchemaVersion: SchemaVersion})
	assert.ErrorIs(t, err, ErrStorageCorrupted)
}
