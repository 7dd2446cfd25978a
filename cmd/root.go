package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "extract-cli",
	Short: "Deterministic business-fact extraction from free text",
	Long:  "Extracts addresses, dates, prices, and identifier patterns from unstructured text using rule-based extractors, with cross-analysis and document-type inference.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
