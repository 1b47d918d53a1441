package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/themesync/internal/application/usecase"
)

// StatusInfo is everything `themesync status` shows.
type StatusInfo struct {
	Snapshot     usecase.ThemeSnapshot
	Backend      string
	SignalSource string
	SyncEnabled  bool
	InstanceID   string
}

// StatusRenderer renders the engine state.
type StatusRenderer struct {
	theme *Theme
	now   func() time.Time
}

// NewStatusRenderer creates a new status renderer with the given theme.
func NewStatusRenderer(theme *Theme) *StatusRenderer {
	return &StatusRenderer{theme: theme, now: time.Now}
}

// Render renders a boxed summary of info.
func (r *StatusRenderer) Render(info StatusInfo) string {
	snap := info.Snapshot
	keyStyle := r.theme.Subtle.Width(10)
	valStyle := r.theme.Normal
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Accent)

	line := func(icon, key, value string) string {
		return fmt.Sprintf("%s %s %s", iconStyle.Render(icon), keyStyle.Render(key), value)
	}

	mode := string(snap.Mode)
	if snap.Preference.UserSet {
		mode += " " + r.theme.MutedBadge("user")
	} else if snap.Preference.SystemDetected {
		mode += " " + r.theme.MutedBadge("detected")
	}

	signal := r.theme.Subtle.Render("unsupported")
	if snap.SignalSupported {
		signal = r.theme.ThemeBadge(snap.SystemSignal)
		if info.SignalSource != "" {
			signal += " " + r.theme.Subtle.Render("via "+info.SignalSource)
		}
	}

	backend := valStyle.Render(info.Backend)
	if snap.StoreDegraded {
		backend = r.theme.WarningStyle.Render(IconWarning + " memory only (" + info.Backend + " unavailable)")
	}

	sync := r.theme.Subtle.Render("off")
	if info.SyncEnabled {
		sync = r.theme.SuccessStyle.Render("on")
	}

	lines := []string{
		line(IconDesktop, "Theme", r.theme.ThemeBadge(snap.Theme)),
		line(IconCursor, "Mode", valStyle.Render(mode)),
		line(IconInfo, "Signal", signal),
		line(IconDatabase, "Storage", backend),
		line(IconSync, "Sync", sync),
		line(IconClock, "Updated", valStyle.Render(relativeTime(r.now(), snap.Preference.LastUpdated))),
	}
	if info.InstanceID != "" {
		lines = append(lines, line(IconArrow, "Instance", r.theme.Subtle.Render(info.InstanceID)))
	}

	header := r.theme.BoxHeader.Render("themesync " + snap.State.String())
	return r.theme.Box.Render(header + "\n" + strings.Join(lines, "\n"))
}

// RenderChange renders one line for `themesync watch`.
func (r *StatusRenderer) RenderChange(snap usecase.ThemeSnapshot) string {
	return fmt.Sprintf("%s %s %s %s",
		r.theme.Subtle.Render(r.now().Format("15:04:05")),
		r.theme.ThemeBadge(snap.Theme),
		r.theme.Subtle.Render("mode="+string(snap.Mode)),
		r.theme.Subtle.Render("signal="+snap.SystemSignal.String()),
	)
}
