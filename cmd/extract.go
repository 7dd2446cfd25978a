package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/extract-cli/internal/extract"
	"github.com/sells-group/extract-cli/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract business facts from a text file or stdin",
	Long: `Runs all four extractors (addresses, dates, prices, identifier patterns)
over the input text and prints the aggregated results.

Reads from the given file, or from stdin when no file is provided.

Examples:
  # Extract from a file
  extract-cli extract invoice.txt

  # Extract from stdin with a context hint
  cat order.txt | extract-cli extract --context "purchase order"

  # Only run selected pattern rule sets
  extract-cli extract invoice.txt --pattern-types email,phone

  # Persist the run to the configured store
  extract-cli extract invoice.txt --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, source, err := readInput(args)
		if err != nil {
			return err
		}

		contextHint, _ := cmd.Flags().GetString("context")
		output, _ := cmd.Flags().GetString("output")
		save, _ := cmd.Flags().GetBool("save")
		typeNames, _ := cmd.Flags().GetStringSlice("pattern-types")
		dateFormat, _ := cmd.Flags().GetString("date-format")

		// Flags override config; config fills in when flags are absent.
		if len(typeNames) == 0 {
			typeNames = cfg.Extract.PatternTypes
		}
		if dateFormat == "" {
			dateFormat = cfg.Extract.DateFormat
		}

		procCfg, err := buildExtractConfig(typeNames)
		if err != nil {
			return err
		}

		proc := extract.NewProcessor()
		results := proc.ProcessText(ctx, text, contextHint, procCfg)

		zap.L().Info("extraction complete",
			zap.String("source", source),
			zap.Int("total", results.Total()),
			zap.Float64("confidence", results.Confidence),
		)

		if save {
			if err := cfg.Validate("extract"); err != nil {
				return err
			}
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			run, err := st.CreateRun(ctx, source, contextHint)
			if err != nil {
				return err
			}
			if err := st.CompleteRun(ctx, run.ID, results.ToDict(), results.Confidence); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return writeResults(os.Stdout, results, output, dateFormat)
	},
}

func init() {
	extractCmd.Flags().String("context", "", "context hint passed to the extractors")
	extractCmd.Flags().String("output", "json", "output format (json, yaml)")
	extractCmd.Flags().String("date-format", "", "normalized date rendering (iso, us, european)")
	extractCmd.Flags().StringSlice("pattern-types", nil, "pattern rule sets to run (default all)")
	extractCmd.Flags().Bool("save", false, "persist the run to the configured store")
	rootCmd.AddCommand(extractCmd)
}

// readInput returns the input text and a source label, reading from the named
// file or from stdin when no argument is given.
func readInput(args []string) (string, string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", eris.Wrapf(err, "read %s", args[0])
		}
		return string(data), args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", eris.Wrap(err, "read stdin")
	}
	return string(data), "stdin", nil
}

// buildExtractConfig converts --pattern-types flag values into a processor
// config. Nil when no types were given, so all rule sets run.
func buildExtractConfig(typeNames []string) (*extract.Config, error) {
	if len(typeNames) == 0 {
		return nil, nil
	}
	types := make([]model.PatternType, 0, len(typeNames))
	for _, name := range typeNames {
		pt, ok := model.ParsePatternType(name)
		if !ok {
			return nil, eris.Errorf("unknown pattern type: %s", name)
		}
		types = append(types, pt)
	}
	return &extract.Config{PatternTypes: types}, nil
}

// writeResults serializes results to w in the requested format, annotating
// each date entry with its rendering in the configured date format.
func writeResults(w io.Writer, results *model.Results, format, dateFormat string) error {
	dict := results.ToDict()

	if entries, ok := dict["dates"].([]map[string]any); ok {
		de := extract.NewDateExtractor()
		for i, d := range results.Dates {
			entries[i]["normalized"] = de.Normalize(d, dateFormat)
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dict)
	case "yaml":
		return yaml.NewEncoder(w).Encode(dict)
	default:
		return eris.Errorf("unknown output format: %s", format)
	}
}
