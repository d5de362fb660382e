package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/metrics"
)

var (
	templatesMetrics bool
	templatesPeriod  string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List registered validation templates",
	Long: `List every registered template: the builtins plus any YAML templates
from the configured template directory.

With --metrics, each template is shown with its aggregated validation
metrics over the given period.`,
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().BoolVar(&templatesMetrics, "metrics", false, "Show aggregated metrics per template")
	templatesCmd.Flags().StringVar(&templatesPeriod, "period", "24h", "Metrics window (24h, 7d, 2w)")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	var store *metrics.Store
	if templatesMetrics {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for _, tpl := range registry.All() {
		bold.Printf("%s", tpl.ID)
		fmt.Printf("  (%s, v%s)\n", tpl.PersonaType, tpl.Version)
		dim.Printf("  rules: %s\n", strings.Join(tpl.RuleNames(), ", "))

		if store != nil {
			agg, err := store.GetAggregatedMetrics(tpl.ID, templatesPeriod)
			if err != nil {
				return err
			}
			fmt.Printf("  last %s: %d validation(s), %.1f%% success, avg score %.1f\n",
				templatesPeriod, agg.TotalValidations, agg.SuccessRate*100, agg.AverageScore)
		}
	}

	if cfg.Templates.Dir != "" {
		fmt.Println()
		dim.Printf("template directory: %s\n", cfg.Templates.Dir)
	}
	return nil
}
