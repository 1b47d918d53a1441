package colorscheme

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

const (
	detectorNameDefaults = "defaults"
	priorityDefaults     = 100
)

// DefaultsDetector reads the macOS AppleInterfaceStyle global default.
type DefaultsDetector struct {
	run func(ctx context.Context) ([]byte, error)
}

// NewDefaultsDetector creates a macOS detector.
func NewDefaultsDetector() *DefaultsDetector {
	return &DefaultsDetector{run: func(ctx context.Context) ([]byte, error) {
		return exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").Output()
	}}
}

// Name implements port.ColorSchemeDetector.
func (*DefaultsDetector) Name() string { return detectorNameDefaults }

// Priority implements port.ColorSchemeDetector.
func (*DefaultsDetector) Priority() int { return priorityDefaults }

// Available implements port.ColorSchemeDetector.
func (*DefaultsDetector) Available() bool {
	_, err := exec.LookPath("defaults")
	return err == nil
}

// Detect implements port.ColorSchemeDetector.
func (d *DefaultsDetector) Detect() (prefersDark, ok bool) {
	out, err := d.run(context.Background())
	if err != nil {
		// The key does not exist in light mode, so defaults exits non-zero.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, true
		}
		return false, false
	}
	return strings.EqualFold(strings.TrimSpace(string(out)), "dark"), true
}
