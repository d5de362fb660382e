package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/generation"
	"github.com/personacraft/personad/pkg/models"
)

var (
	generateType       string
	generateBrief      string
	generateMinAge     int
	generateMaxAge     int
	generateLocation   string
	generateInterests  int
	generateCategories []string
	generateJSON       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and validate a persona",
	Long: `Generate a persona with the Anthropic API and validate it against the
standard template for its type. Failed attempts are retried with the
validation errors fed back to the model; when every attempt fails, the
best-scoring candidate is returned and flagged as a fallback.

Requires an Anthropic API key (ANTHROPIC_API_KEY or anthropic.api_key in
the config), or AWS Bedrock configured via anthropic.use_aws_bedrock.

Examples:
  personad generate --type b2c --brief "eco-conscious urban commuters"
  personad generate --type b2b --min-age 30 --max-age 55 --json
  personad generate --type niche --categories music,film --interests 6`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateType, "type", "b2c", "Persona type (b2c, b2b, niche)")
	generateCmd.Flags().StringVar(&generateBrief, "brief", "", "Marketing brief to generate from")
	generateCmd.Flags().IntVar(&generateMinAge, "min-age", 0, "Minimum age")
	generateCmd.Flags().IntVar(&generateMaxAge, "max-age", 0, "Maximum age")
	generateCmd.Flags().StringVar(&generateLocation, "location", "", "Requested location")
	generateCmd.Flags().IntVar(&generateInterests, "interests", 0, "Desired number of interests")
	generateCmd.Flags().StringSliceVar(&generateCategories, "categories", nil, "Allowed interest categories")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the full persona record as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	personaType := models.PersonaType(generateType)
	if !personaType.Valid() {
		return fmt.Errorf("unknown persona type %q (want b2c, b2b or niche)", generateType)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	apiKey := ""
	if !cfg.Anthropic.UseAWSBedrock {
		apiKey, err = config.GetAPIKey(cfg)
		if err != nil {
			return err
		}
	}

	client, err := generation.NewClient(generation.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create anthropic client: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline, err := generation.NewPipeline(generation.PipelineConfig{
		Generator: generation.NewAnthropicGenerator(client),
		Engine:    engine.NewEngine(registry, nil, nil),
		Retry:     engine.RetryConfig{MaxAttempts: cfg.Generation.MaxAttempts},
		Recorder:  store,
	})
	if err != nil {
		return err
	}

	req := models.GenerationRequest{
		PersonaType: personaType,
		Brief:       generateBrief,
		Demographics: models.Demographics{
			MinAge:   generateMinAge,
			MaxAge:   generateMaxAge,
			Location: generateLocation,
		},
		DesiredInterests: generateInterests,
	}
	constraints := models.CulturalConstraints{AllowedCategories: generateCategories}

	outcome, err := pipeline.GenerateValidated(context.Background(), req, constraints, models.UserSignals{})
	if err != nil {
		return err
	}

	if generateJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(outcome.Persona)
	}

	printOutcome(outcome)
	printTokenUsage(client.Tracker())
	return nil
}

func printTokenUsage(tracker *generation.TokenTracker) {
	input, output := tracker.Total()
	color.New(color.Faint).Printf("tokens: %d in, %d out over %d call(s)\n",
		input, output, tracker.Calls())
}

func printOutcome(outcome *generation.Outcome) {
	pass := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.Faint)

	if outcome.UsedFallback {
		warn.Printf("FALLBACK")
		fmt.Printf("  no attempt passed; best score %d after %d attempt(s)\n",
			outcome.Result.Score, outcome.Attempts)
	} else {
		pass.Printf("VALID")
		fmt.Printf("  score %d after %d attempt(s)\n", outcome.Result.Score, outcome.Attempts)
	}

	doc, err := json.MarshalIndent(outcome.Persona.Document, "", "  ")
	if err == nil {
		fmt.Println(string(doc))
	}
	dim.Printf("persona id: %s\n", outcome.Persona.ID)
}
