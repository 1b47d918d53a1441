package port

import "github.com/bnema/themesync/internal/domain/entity"

// ColorSchemeDetector reads one platform source of the OS appearance signal.
// Several detectors can be registered with different priorities.
type ColorSchemeDetector interface {
	// Name returns a human-readable name for this detector.
	Name() string

	// Priority returns the detector's priority.
	// Higher values = higher priority (checked first).
	// Recommended ranges:
	//   - 200+: Explicit overrides (environment)
	//   - 100+: Native platform settings (gsettings, defaults, registry)
	//   -  10+: Heuristics (GTK_THEME name)
	Priority() int

	// Available returns true if this detector can be used in this context.
	Available() bool

	// Detect returns the detected preference and whether detection succeeded.
	// Returns (preference, true) on success, (_, false) if detection failed.
	Detect() (prefersDark bool, ok bool)
}

// SystemSignalDetector exposes the OS appearance signal to the engine.
type SystemSignalDetector interface {
	// CurrentValue returns the last read signal, or entity.ThemeUnknown.
	CurrentValue() entity.ThemeValue

	// Supported is fixed for the detector's lifetime. When false,
	// CurrentValue always returns entity.ThemeUnknown.
	Supported() bool

	// Subscribe registers a callback invoked once per genuine transition.
	// The returned Unsubscribe is idempotent.
	Subscribe(callback func(entity.ThemeValue)) Unsubscribe
}
