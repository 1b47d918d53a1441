//go:build windows

package colorscheme

import (
	"golang.org/x/sys/windows/registry"
)

const (
	detectorNameRegistry = "registry"
	priorityRegistry     = 100

	personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`
)

// RegistryDetector reads AppsUseLightTheme from the current user's hive.
type RegistryDetector struct{}

// NewRegistryDetector creates a Windows detector.
func NewRegistryDetector() *RegistryDetector {
	return &RegistryDetector{}
}

// Name implements port.ColorSchemeDetector.
func (*RegistryDetector) Name() string { return detectorNameRegistry }

// Priority implements port.ColorSchemeDetector.
func (*RegistryDetector) Priority() int { return priorityRegistry }

// Available implements port.ColorSchemeDetector.
func (*RegistryDetector) Available() bool {
	key, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	_ = key.Close()
	return true
}

// Detect implements port.ColorSchemeDetector.
func (*RegistryDetector) Detect() (prefersDark, ok bool) {
	key, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		return false, false
	}
	defer key.Close()

	light, _, err := key.GetIntegerValue("AppsUseLightTheme")
	if err != nil {
		return false, false
	}
	return light == 0, true
}
