package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/application/usecase"
	"github.com/bnema/themesync/internal/domain/entity"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the resolved theme",
	Long: `Resolve the preference and print the theme to display, light or dark.

With --json the full snapshot is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <light|dark|system>",
	Short: "Record an explicit theme choice",
	Long: `Record an explicit choice. light and dark pin the theme; system tracks
the OS appearance signal without adopting it into the record.

Once a choice is recorded the OS signal no longer overrides it. Use
'themesync reset' to return to automatic detection.`,
	Example: `  themesync set dark
  themesync set system`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(entity.ModeLight), string(entity.ModeDark), string(entity.ModeSystem)},
	RunE:      runSet,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip between light and dark",
	Long:  `Record the opposite of the currently displayed theme as an explicit choice.`,
	Args:  cobra.NoArgs,
	RunE:  runToggle,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored preference",
	Long: `Remove the stored record and resolve again from the OS signal, as on
a first run.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(resetCmd)
}

func runGet(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	engine, err := a.StartEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	return printSnapshot(cmd.OutOrStdout(), engine.Snapshot())
}

func runSet(cmd *cobra.Command, args []string) error {
	mode, err := entity.ParseThemeMode(args[0])
	if err != nil {
		return err
	}
	return mutate(cmd, func(engine *usecase.ThemeEngine) error {
		if mode == entity.ModeSystem {
			return engine.FollowSystem(cmd.Context())
		}
		value, _ := mode.Concrete()
		return engine.SetTheme(cmd.Context(), value)
	})
}

func runToggle(cmd *cobra.Command, _ []string) error {
	return mutate(cmd, func(engine *usecase.ThemeEngine) error {
		return engine.ToggleTheme(cmd.Context())
	})
}

func runReset(cmd *cobra.Command, _ []string) error {
	return mutate(cmd, func(engine *usecase.ThemeEngine) error {
		return engine.ResetPreference(cmd.Context())
	})
}

// mutate applies fn to a one-shot engine and prints the resulting snapshot.
// Close flushes the pending write before the process exits.
func mutate(cmd *cobra.Command, fn func(*usecase.ThemeEngine) error) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	engine, err := a.StartEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	if err := fn(engine); err != nil {
		return err
	}
	return printSnapshot(cmd.OutOrStdout(), engine.Snapshot())
}

type snapshotJSON struct {
	Theme           entity.ThemeValue `json:"theme"`
	Mode            entity.ThemeMode  `json:"mode"`
	SystemSignal    string            `json:"system_signal"`
	SignalSupported bool              `json:"signal_supported"`
	State           string            `json:"state"`
	StoreDegraded   bool              `json:"store_degraded"`
	UserSet         bool              `json:"user_set"`
	SystemDetected  bool              `json:"system_detected"`
	LastUpdated     *time.Time        `json:"last_updated,omitempty"`
}

func newSnapshotJSON(snap usecase.ThemeSnapshot) snapshotJSON {
	out := snapshotJSON{
		Theme:           snap.Theme,
		Mode:            snap.Mode,
		SystemSignal:    snap.SystemSignal.String(),
		SignalSupported: snap.SignalSupported,
		State:           snap.State.String(),
		StoreDegraded:   snap.StoreDegraded,
		UserSet:         snap.Preference.UserSet,
		SystemDetected:  snap.Preference.SystemDetected,
	}
	if !snap.Preference.LastUpdated.IsZero() {
		at := snap.Preference.LastUpdated
		out.LastUpdated = &at
	}
	return out
}

func printSnapshot(w io.Writer, snap usecase.ThemeSnapshot) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, snap.Theme)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newSnapshotJSON(snap))
}
