package colorscheme

import "github.com/bnema/themesync/internal/application/port"

// Platform returns the detectors for the build platform, the env override first.
func Platform() []port.ColorSchemeDetector {
	return append([]port.ColorSchemeDetector{NewEnvDetector()}, platformDetectors()...)
}
