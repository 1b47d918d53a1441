package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/cli/styles"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the resolved preference and where it came from",
	Long: `Show the displayed theme, the stored mode, the OS signal and the
storage backend in use.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	engine, err := a.StartEngine(cmd.Context(), false)
	if err != nil {
		return err
	}

	info := styles.StatusInfo{
		Snapshot:    engine.Snapshot(),
		Backend:     a.Store.Backend(),
		SyncEnabled: a.Config.Sync.Enabled,
		InstanceID:  a.InstanceID,
	}
	if a.Detector != nil {
		info.SignalSource = a.Detector.Source()
	}

	if jsonOutput {
		out := struct {
			snapshotJSON
			Backend      string `json:"backend"`
			SignalSource string `json:"signal_source,omitempty"`
			SyncEnabled  bool   `json:"sync_enabled"`
			InstanceID   string `json:"instance_id"`
		}{
			snapshotJSON: newSnapshotJSON(info.Snapshot),
			Backend:      info.Backend,
			SignalSource: info.SignalSource,
			SyncEnabled:  info.SyncEnabled,
			InstanceID:   info.InstanceID,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), styles.NewStatusRenderer(a.Theme).Render(info))
	return err
}
