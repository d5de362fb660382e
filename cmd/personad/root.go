package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "personad",
	Short: "Persona validation engine",
	Long: `personad validates AI-generated marketing personas against
rule-based templates, tracks validation metrics over time, and serves
both over HTTP.

Core capabilities:
- Rule templates per persona type (b2c, b2b, niche)
- Blocking and advisory rule categories with a 0-100 score
- Generate-validate loop with error feedback to the model
- Validation metrics in SQLite with aggregation and retention cleanup`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
