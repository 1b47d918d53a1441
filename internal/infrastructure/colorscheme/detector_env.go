package colorscheme

import (
	"os"
	"strings"

	"github.com/bnema/themesync/internal/domain/entity"
)

const (
	// OverrideEnv forces the signal, e.g. THEMESYNC_COLOR_SCHEME=dark.
	OverrideEnv = "THEMESYNC_COLOR_SCHEME"

	detectorNameOverride = "env"
	priorityOverride     = 200

	detectorNameGtkTheme = "GTK_THEME"
	priorityGtkTheme     = 20
)

// EnvDetector reads an explicit override from THEMESYNC_COLOR_SCHEME.
// Accepted values are those of entity.ParseThemeValue.
type EnvDetector struct{}

// NewEnvDetector creates the override detector.
func NewEnvDetector() *EnvDetector {
	return &EnvDetector{}
}

// Name implements port.ColorSchemeDetector.
func (*EnvDetector) Name() string { return detectorNameOverride }

// Priority implements port.ColorSchemeDetector.
func (*EnvDetector) Priority() int { return priorityOverride }

// Available implements port.ColorSchemeDetector.
func (*EnvDetector) Available() bool {
	return os.Getenv(OverrideEnv) != ""
}

// Detect implements port.ColorSchemeDetector.
func (*EnvDetector) Detect() (prefersDark, ok bool) {
	v, err := entity.ParseThemeValue(os.Getenv(OverrideEnv))
	if err != nil {
		return false, false
	}
	return v == entity.ThemeDark, true
}

// GtkThemeEnvDetector infers the signal from the GTK_THEME name.
type GtkThemeEnvDetector struct{}

// NewGtkThemeEnvDetector creates a GTK_THEME based detector.
func NewGtkThemeEnvDetector() *GtkThemeEnvDetector {
	return &GtkThemeEnvDetector{}
}

// Name implements port.ColorSchemeDetector.
func (*GtkThemeEnvDetector) Name() string { return detectorNameGtkTheme }

// Priority implements port.ColorSchemeDetector.
func (*GtkThemeEnvDetector) Priority() int { return priorityGtkTheme }

// Available implements port.ColorSchemeDetector.
func (*GtkThemeEnvDetector) Available() bool {
	return os.Getenv("GTK_THEME") != ""
}

// Detect implements port.ColorSchemeDetector.
// Any theme name without "dark" in it counts as light.
func (*GtkThemeEnvDetector) Detect() (prefersDark, ok bool) {
	gtkTheme := os.Getenv("GTK_THEME")
	if gtkTheme == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(gtkTheme), "dark"), true
}
