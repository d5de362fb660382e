package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/metrics"
	"github.com/personacraft/personad/internal/tui"
)

var (
	metricsTemplate string
	metricsPeriod   string
	metricsWatch    bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show validation metrics",
	Long: `Show aggregated validation metrics from the metrics store.

Without flags, prints a per-template summary. With --template, prints the
aggregation for that template over the given period. With --watch, opens a
live dashboard that refreshes on the configured interval.

Examples:
  personad metrics
  personad metrics --template b2c-standard --period 7d
  personad metrics --watch`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsTemplate, "template", "t", "", "Aggregate a single template")
	metricsCmd.Flags().StringVarP(&metricsPeriod, "period", "p", "", "Time window (24h, 7d, 2w); empty means all time")
	metricsCmd.Flags().BoolVarP(&metricsWatch, "watch", "w", false, "Open the live dashboard")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if metricsWatch {
		dash := tui.NewDashboard(store, cfg.TUI.RefreshRate)
		program := tea.NewProgram(dash, tea.WithAltScreen())
		_, err := program.Run()
		return err
	}

	if metricsTemplate != "" {
		agg, err := store.GetAggregatedMetrics(metricsTemplate, metricsPeriod)
		if err != nil {
			return err
		}
		printAggregated(agg)
		return nil
	}

	summary, err := store.GetMetricsSummary(metrics.Query{})
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func printAggregated(agg *metrics.Aggregated) {
	bold := color.New(color.Bold)

	label := agg.TemplateID
	if agg.Period != "" {
		label += " over " + agg.Period
	}
	bold.Printf("%s\n", label)
	fmt.Printf("  validations:  %d\n", agg.TotalValidations)
	fmt.Printf("  success rate: %.1f%%\n", agg.SuccessRate*100)
	fmt.Printf("  avg score:    %.1f\n", agg.AverageScore)
	fmt.Printf("  fallback use: %.1f%%\n", agg.FallbackUsageRate*100)
}

func printSummary(summary []*metrics.SummaryRow) {
	if len(summary) == 0 {
		fmt.Println("No validations recorded.")
		return
	}

	bold := color.New(color.Bold)
	bold.Printf("%-22s %-6s %8s %9s %10s %9s\n",
		"TEMPLATE", "TYPE", "RUNS", "SUCCESS", "AVG SCORE", "FALLBACK")
	for _, row := range summary {
		fmt.Printf("%-22s %-6s %8d %8.1f%% %10.1f %8.1f%%\n",
			row.TemplateID, row.PersonaType, row.TotalValidations,
			row.SuccessRate*100, row.AverageScore, row.FallbackUsageRate*100)
	}
}
