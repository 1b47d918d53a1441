//go:build darwin

package colorscheme

import "github.com/bnema/themesync/internal/application/port"

func platformDetectors() []port.ColorSchemeDetector {
	return []port.ColorSchemeDetector{NewDefaultsDetector()}
}
