package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/application/usecase"
	"github.com/bnema/themesync/internal/infrastructure/config"
)

const (
	schemaKindRecord = "record"
	schemaKindConfig = "config"
)

var schemaKind string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the stored record",
	Long: `Print the JSON schema describing the persisted preference record.

With --kind config the schema of config.toml is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaKind, "kind", schemaKindRecord, "schema to print: record, config")
}

func runSchema(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	switch schemaKind {
	case schemaKindRecord:
	case schemaKindConfig:
		data, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config schema: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		return fmt.Errorf("unknown schema kind %q (use: record, config)", schemaKind)
	}

	uc := usecase.NewGetPreferenceSchemaUseCase()
	result, err := uc.Execute(cmd.Context(), usecase.GetPreferenceSchemaInput{Indent: true})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(result.Document))
	return err
}
