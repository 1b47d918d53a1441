package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ConfigRenderer renders config status messages with styled output.
type ConfigRenderer struct {
	theme *Theme
}

// NewConfigRenderer creates a new config renderer with the given theme.
func NewConfigRenderer(theme *Theme) *ConfigRenderer {
	return &ConfigRenderer{theme: theme}
}

// RenderPath renders the config file location and whether it exists.
func (r *ConfigRenderer) RenderPath(path string, exists bool) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Accent)
	pathStyle := r.theme.Subtle

	status := r.theme.SuccessStyle.Render("present")
	if !exists {
		status = r.theme.WarningStyle.Render("not created, defaults apply")
	}

	return fmt.Sprintf(
		"\n  %s Config %s\n  %s %s\n",
		iconStyle.Render(IconConfig),
		pathStyle.Render(path),
		iconStyle.Render(IconInfo),
		status,
	)
}

// RenderCreated renders the result of `config init`.
func (r *ConfigRenderer) RenderCreated(path string, created bool) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Success)
	pathStyle := r.theme.Subtle

	if !created {
		return fmt.Sprintf(
			"\n  %s Config %s already exists\n  %s\n",
			lipgloss.NewStyle().Foreground(r.theme.Warning).Render(IconWarning),
			pathStyle.Render(path),
			r.theme.Subtle.Render("Use --force to overwrite it with defaults."),
		)
	}

	return fmt.Sprintf(
		"\n  %s Created %s\n",
		iconStyle.Render(IconCheck),
		pathStyle.Render(path),
	)
}

// RenderError renders an error message.
func (r *ConfigRenderer) RenderError(err error) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Error)

	return fmt.Sprintf(
		"\n  %s Config error: %v\n",
		iconStyle.Render(IconX),
		err,
	)
}
