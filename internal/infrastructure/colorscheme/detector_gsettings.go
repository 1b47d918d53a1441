package colorscheme

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	detectorNameGsettings = "gsettings"
	priorityGsettings     = 100

	gsettingsSchema = "org.gnome.desktop.interface"
	// gsettingsTimeout bounds both reads done by a single Detect.
	gsettingsTimeout = 2 * time.Second
)

// GsettingsDetector reads org.gnome.desktop.interface color-scheme and falls
// back to the gtk-theme name on desktops without the color-scheme key.
type GsettingsDetector struct {
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewGsettingsDetector creates a gsettings-based detector.
func NewGsettingsDetector() *GsettingsDetector {
	return &GsettingsDetector{run: runGsettings}
}

func runGsettings(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "gsettings", args...).Output()
}

// Name implements port.ColorSchemeDetector.
func (*GsettingsDetector) Name() string { return detectorNameGsettings }

// Priority implements port.ColorSchemeDetector.
func (*GsettingsDetector) Priority() int { return priorityGsettings }

// Available implements port.ColorSchemeDetector.
func (*GsettingsDetector) Available() bool {
	_, err := exec.LookPath("gsettings")
	return err == nil
}

// Detect implements port.ColorSchemeDetector.
func (d *GsettingsDetector) Detect() (prefersDark, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), gsettingsTimeout)
	defer cancel()

	if out, err := d.run(ctx, "get", gsettingsSchema, "color-scheme"); err == nil {
		switch unquote(out) {
		case "prefer-dark":
			return true, true
		case "prefer-light":
			return false, true
		}
		// "default" leaves the decision to the GTK theme.
	}

	out, err := d.run(ctx, "get", gsettingsSchema, "gtk-theme")
	if err != nil {
		return false, false
	}
	name := unquote(out)
	if name == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(name), "dark"), true
}

// Watch runs `gsettings monitor` and calls changed for every reported change
// until ctx is done or the process exits.
func (*GsettingsDetector) Watch(ctx context.Context, changed func()) error {
	cmd := exec.CommandContext(ctx, "gsettings", "monitor", gsettingsSchema)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("gsettings monitor: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("gsettings monitor: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		// Lines look like "color-scheme: 'prefer-dark'".
		key, _, _ := strings.Cut(scanner.Text(), ":")
		switch strings.TrimSpace(key) {
		case "color-scheme", "gtk-theme":
			changed()
		}
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gsettings monitor exited: %w", err)
	}
	return nil
}

// unquote strips the GVariant string quoting from gsettings output.
func unquote(out []byte) string {
	return strings.Trim(strings.TrimSpace(string(out)), "'\"")
}
