package colorscheme

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvDetector(t *testing.T) {
	tests := []struct {
		value     string
		available bool
		wantDark  bool
		wantOk    bool
	}{
		{"", false, false, false},
		{"dark", true, true, true},
		{"prefer-light", true, false, true},
		{"mauve", true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.value)
			d := NewEnvDetector()
			assert.Equal(t, tt.available, d.Available())
			dark, ok := d.Detect()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantDark, dark)
		})
	}
}

func TestGtkThemeEnvDetector(t *testing.T) {
	d := NewGtkThemeEnvDetector()

	t.Setenv("GTK_THEME", "Adwaita:dark")
	assert.True(t, d.Available())
	dark, ok := d.Detect()
	assert.True(t, ok)
	assert.True(t, dark)

	t.Setenv("GTK_THEME", "Adwaita")
	dark, ok = d.Detect()
	assert.True(t, ok)
	assert.False(t, dark)

	t.Setenv("GTK_THEME", "")
	assert.False(t, d.Available())
	_, ok = d.Detect()
	assert.False(t, ok)
}

func TestGsettingsDetector_Detect(t *testing.T) {
	errMissing := errors.New("no such key")

	tests := []struct {
		name        string
		colorScheme string
		schemeErr   error
		gtkTheme    string
		themeErr    error
		wantDark    bool
		wantOk      bool
	}{
		{name: "prefer dark", colorScheme: "'prefer-dark'\n", wantDark: true, wantOk: true},
		{name: "prefer light", colorScheme: "'prefer-light'\n", wantOk: true},
		{name: "default with dark gtk theme", colorScheme: "'default'\n", gtkTheme: "'Adwaita-dark'\n", wantDark: true, wantOk: true},
		{name: "default with light gtk theme", colorScheme: "'default'\n", gtkTheme: "'Adwaita'\n", wantOk: true},
		{name: "no color-scheme key", schemeErr: errMissing, gtkTheme: "'Yaru-dark'", wantDark: true, wantOk: true},
		{name: "nothing readable", schemeErr: errMissing, themeErr: errMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &GsettingsDetector{run: func(_ context.Context, args ...string) ([]byte, error) {
				switch args[len(args)-1] {
				case "color-scheme":
					return []byte(tt.colorScheme), tt.schemeErr
				case "gtk-theme":
					return []byte(tt.gtkTheme), tt.themeErr
				}
				t.Fatalf("unexpected args %v", args)
				return nil, nil
			}}
			dark, ok := d.Detect()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantDark, dark)
		})
	}
}

func TestGsettingsDetector_DetectBoundsCommand(t *testing.T) {
	var calls int
	d := &GsettingsDetector{run: func(ctx context.Context, _ ...string) ([]byte, error) {
		calls++
		deadline, ok := ctx.Deadline()
		assert.True(t, ok, "gsettings runs without a deadline")
		assert.LessOrEqual(t, time.Until(deadline), gsettingsTimeout)
		return nil, errors.New("hung")
	}}

	_, ok := d.Detect()
	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestDefaultsDetector_Detect(t *testing.T) {
	t.Run("dark", func(t *testing.T) {
		d := &DefaultsDetector{run: func(context.Context) ([]byte, error) { return []byte("Dark\n"), nil }}
		dark, ok := d.Detect()
		assert.True(t, ok)
		assert.True(t, dark)
	})
	t.Run("key missing means light", func(t *testing.T) {
		d := &DefaultsDetector{run: func(context.Context) ([]byte, error) { return nil, &exec.ExitError{} }}
		dark, ok := d.Detect()
		assert.True(t, ok)
		assert.False(t, dark)
	})
	t.Run("command unusable", func(t *testing.T) {
		d := &DefaultsDetector{run: func(context.Context) ([]byte, error) { return nil, exec.ErrNotFound }}
		_, ok := d.Detect()
		assert.False(t, ok)
	})
}

func TestPlatform_StartsWithOverride(t *testing.T) {
	detectors := Platform()
	if assert.NotEmpty(t, detectors) {
		assert.Equal(t, "env", detectors[0].Name())
	}
}
