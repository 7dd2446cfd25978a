package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/extract-cli/internal/extract"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Extract and validate business facts from a text file or stdin",
	Long: `Runs the full extraction pipeline and then checks every candidate
against the validation rules, printing a per-component validation report.

Exits non-zero when the overall validation fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, _, err := readInput(args)
		if err != nil {
			return err
		}

		contextHint, _ := cmd.Flags().GetString("context")

		proc := extract.NewProcessor()
		results := proc.ProcessText(ctx, text, contextHint, nil)
		report := proc.ValidateResults(results)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}

		if valid, ok := report["overall_valid"].(bool); ok && !valid {
			return eris.New("validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().String("context", "", "context hint passed to the extractors")
	rootCmd.AddCommand(validateCmd)
}
