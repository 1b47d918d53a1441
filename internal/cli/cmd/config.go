package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/cli/styles"
	"github.com/bnema/themesync/internal/infrastructure/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Show where the configuration lives and write a default config file.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file and its JSON schema",
	Long: `Write config.toml with every setting at its default, next to
config.schema.json for editor completion.

An existing file is left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	renderer := styles.NewConfigRenderer(a.Theme)
	_, err = fmt.Fprint(cmd.OutOrStdout(), renderer.RenderPath(a.Manager.ConfigFile(), a.Manager.Exists()))
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	renderer := styles.NewConfigRenderer(a.Theme)
	path := a.Manager.ConfigFile()

	created, err := config.InitConfigFile(path, configForce)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), renderer.RenderError(err))
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), renderer.RenderCreated(path, created))
	return err
}
