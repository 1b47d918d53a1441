//go:build windows

package colorscheme

import "github.com/bnema/themesync/internal/application/port"

func platformDetectors() []port.ColorSchemeDetector {
	return []port.ColorSchemeDetector{NewRegistryDetector()}
}
