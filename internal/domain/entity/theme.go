package entity

import (
	"fmt"
	"strings"
)

// ThemeValue is the concrete, displayable appearance.
type ThemeValue string

const (
	ThemeLight ThemeValue = "light"
	ThemeDark  ThemeValue = "dark"

	// ThemeUnknown is what a detector reports when it has no opinion.
	// It is never displayed; callers must not read it as light.
	ThemeUnknown ThemeValue = ""
)

// DefaultTheme is the hard default used when neither storage nor the OS have an answer.
const DefaultTheme = ThemeLight

// Valid reports whether t is light or dark.
func (t ThemeValue) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Known reports whether t carries an opinion.
func (t ThemeValue) Known() bool {
	return t.Valid()
}

// Opposite returns the other concrete value. Unknown flips to dark,
// since it displays as light.
func (t ThemeValue) Opposite() ThemeValue {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// OrDefault returns t, or DefaultTheme when t is Unknown.
func (t ThemeValue) OrDefault() ThemeValue {
	if t.Valid() {
		return t
	}
	return DefaultTheme
}

// String returns "unknown" for ThemeUnknown.
func (t ThemeValue) String() string {
	if t == ThemeUnknown {
		return "unknown"
	}
	return string(t)
}

// ThemeFromDark maps a prefers-dark flag to a ThemeValue.
func ThemeFromDark(prefersDark bool) ThemeValue {
	if prefersDark {
		return ThemeDark
	}
	return ThemeLight
}

// ParseThemeValue parses "light" or "dark" (case-insensitive).
func ParseThemeValue(s string) (ThemeValue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "prefer-light":
		return ThemeLight, nil
	case "dark", "prefer-dark":
		return ThemeDark, nil
	default:
		return ThemeUnknown, fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// ThemeMode is the user's intent. ModeSystem means "track the OS signal".
type ThemeMode string

const (
	ModeLight  ThemeMode = "light"
	ModeDark   ThemeMode = "dark"
	ModeSystem ThemeMode = "system"
)

// Valid reports whether m is one of the three modes.
func (m ThemeMode) Valid() bool {
	switch m {
	case ModeLight, ModeDark, ModeSystem:
		return true
	}
	return false
}

// Concrete returns the ThemeValue for light and dark modes.
// ok is false for ModeSystem.
func (m ThemeMode) Concrete() (value ThemeValue, ok bool) {
	switch m {
	case ModeLight:
		return ThemeLight, true
	case ModeDark:
		return ThemeDark, true
	}
	return ThemeUnknown, false
}

// ModeFor returns the mode that pins v.
func ModeFor(v ThemeValue) ThemeMode {
	if v == ThemeDark {
		return ModeDark
	}
	return ModeLight
}

// ParseThemeMode accepts light, dark and system, plus the color-scheme
// spellings used by GNOME (prefer-dark, prefer-light, default).
func ParseThemeMode(s string) (ThemeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "prefer-light":
		return ModeLight, nil
	case "dark", "prefer-dark":
		return ModeDark, nil
	case "system", "default", "auto":
		return ModeSystem, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}
