// Package cmd provides Cobra CLI commands for themesync.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/cli"
	"github.com/bnema/themesync/internal/domain/build"
)

var (
	app       *cli.App
	buildInfo build.Info

	configFileFlag string
	jsonOutput     bool

	rootCmd = &cobra.Command{
		Use:   "themesync",
		Short: "Persist and synchronize a light/dark theme preference",
		Long: `themesync keeps one light/dark appearance preference per user.

The preference is resolved once at startup from the stored record, the
operating system appearance signal and a hard default (light). Explicit
choices always win over the OS signal. Every running instance that shares
the same storage converges on the most recent choice.

Storage backends:
  file    JSON record under $XDG_DATA_HOME/themesync (default)
  sqlite  single-row table, shared by every process on the host
  redis   key plus pub/sub channel, shared across hosts
  memory  process-local, nothing survives exit

Use 'themesync watch' to follow changes live, or 'themesync set' to
record an explicit choice.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion", "gen-docs":
				return nil
			}

			var err error
			app, err = cli.NewApp(cli.Options{
				ConfigFile: configFileFlag,
				LogLevel:   cmd.Flags().Lookup("log-level"),
			})
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			// Set build info from main.go
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFileFlag, "config", "", "config file (default $XDG_CONFIG_HOME/themesync/config.toml)")
	flags.String("log-level", "", "log level override (trace, debug, info, warn, error)")
	flags.BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetBuildInfo sets the build information (called from main.go before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
}

func requireApp() (*cli.App, error) {
	a := GetApp()
	if a == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return a, nil
}
