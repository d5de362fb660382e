package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

var (
	validateTemplate   string
	validateCategories []string
	validateRecord     bool
)

// errValidationFailed makes the command exit non-zero without printing a
// usage block after the rule-by-rule output.
var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate a persona JSON file against a template",
	Long: `Validate a persona document against a registered template and print
the rule-by-rule outcome.

The file must contain a single JSON object. The exit code is non-zero when
validation fails, so the command can gate CI pipelines.

Examples:
  personad validate persona.json --template b2c-standard
  personad validate persona.json -t b2b-standard --categories music,dining
  personad validate persona.json -t b2c-standard --record`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateTemplate, "template", "t", "", "Template id to validate against (required)")
	validateCmd.Flags().StringSliceVar(&validateCategories, "categories", nil, "Allowed interest categories")
	validateCmd.Flags().BoolVar(&validateRecord, "record", false, "Record the result in the metrics store")
	validateCmd.MarkFlagRequired("template")
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read persona file: %w", err)
	}

	candidate, err := models.ParseCandidate(raw)
	if err != nil {
		return fmt.Errorf("parse persona file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	var recorder engine.Recorder
	if validateRecord {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	eng := engine.NewEngine(registry, recorder, nil)

	vctx := rules.Context{
		Constraints: models.CulturalConstraints{AllowedCategories: validateCategories},
		Attempt:     1,
	}
	result, err := eng.ValidateResponse(context.Background(), candidate, validateTemplate, vctx)
	if err != nil {
		return err
	}

	printResult(result)

	if !result.IsValid {
		// Return instead of exiting so deferred cleanup (the metrics
		// store under --record) still runs.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errValidationFailed
	}
	return nil
}

// printResult renders a validation result for the terminal.
func printResult(result *engine.ValidationResult) {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	if result.IsValid {
		pass.Printf("VALID")
	} else {
		fail.Printf("INVALID")
	}
	fmt.Printf("  template=%s score=%d/100 (%dms)\n\n",
		result.TemplateID, result.Score, result.ValidationTimeMs)

	for _, detail := range result.Details {
		marker := pass.Sprint("✓")
		if !detail.Passed {
			if detail.Category.Blocking() {
				marker = fail.Sprint("✗")
			} else {
				marker = warn.Sprint("!")
			}
		}
		line := fmt.Sprintf("%s %s [%s]", marker, detail.Rule, detail.Category)
		if detail.Field != "" {
			line += " " + detail.Field
		}
		if detail.Message != "" {
			line += dim.Sprintf("  %s", detail.Message)
		}
		fmt.Println(line)
	}

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		fmt.Println()
		dim.Printf("%d error(s), %d warning(s)\n", len(result.Errors), len(result.Warnings))
	}
}
