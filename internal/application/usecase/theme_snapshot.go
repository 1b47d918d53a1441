package usecase

import (
	"github.com/bnema/themesync/internal/domain/entity"
)

// EngineState is the resolution state of a ThemeEngine.
type EngineState int

const (
	StateUninitialized EngineState = iota
	StateResolving
	StateResolved
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// ThemeSnapshot is an immutable view of the engine published after every
// state change.
type ThemeSnapshot struct {
	// Theme is the displayed value. Before resolution it is the hard default
	// and Loading is true.
	Theme entity.ThemeValue
	// Mode is the stored user intent.
	Mode entity.ThemeMode
	// SystemSignal is the raw OS signal, ThemeUnknown when there is none.
	SystemSignal entity.ThemeValue
	Loading      bool
	State        EngineState
	// Preference is the locally held record, zero until resolved.
	Preference      entity.Preference
	StoreDegraded   bool
	SignalSupported bool
}

// sameDisplay reports whether subscribers would observe no difference.
func (s ThemeSnapshot) sameDisplay(other ThemeSnapshot) bool {
	return s.Theme == other.Theme &&
		s.Mode == other.Mode &&
		s.SystemSignal == other.SystemSignal &&
		s.Loading == other.Loading &&
		s.State == other.State &&
		s.StoreDegraded == other.StoreDegraded &&
		s.Preference.UserSet == other.Preference.UserSet &&
		s.Preference.SystemDetected == other.Preference.SystemDetected &&
		s.Preference.LastUpdated.Equal(other.Preference.LastUpdated)
}
