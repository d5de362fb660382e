package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify personad configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/personad/config.yaml
Project-specific overrides can be placed in .personad.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("server.host: %s\n", cfg.Server.Host)
	fmt.Printf("server.port: %d\n", cfg.Server.Port)
	fmt.Printf("database.path: %s\n", orDefault(cfg.Database.Path, "(xdg data dir)"))
	fmt.Printf("templates.dir: %s\n", orDefault(cfg.Templates.Dir, "(builtins only)"))
	fmt.Printf("templates.watch: %t\n", cfg.Templates.Watch)
	fmt.Printf("metrics.retention_days: %d\n", cfg.Metrics.RetentionDays)
	fmt.Printf("anthropic.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model, "(sdk default)"))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orDefault(cfg.Anthropic.AWSRegion, "(not set)"))
	fmt.Printf("generation.max_attempts: %d\n", cfg.Generation.MaxAttempts)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)

	fmt.Printf("\nuser config:    %s\n", configPathStatus(config.GetUserConfigPath()))
	fmt.Printf("project config: %s\n", configPathStatus(config.GetProjectConfigPath()))
}

func configPathStatus(path string) string {
	if path == "" {
		return "(none)"
	}
	if _, err := os.Stat(path); err != nil {
		return path + " (not present)"
	}
	return path
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return strconv.Itoa(cfg.Server.Port), nil
	case "database.path":
		return cfg.Database.Path, nil
	case "templates.dir":
		return cfg.Templates.Dir, nil
	case "templates.watch":
		return strconv.FormatBool(cfg.Templates.Watch), nil
	case "metrics.retention_days":
		return strconv.Itoa(cfg.Metrics.RetentionDays), nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "generation.max_attempts":
		return strconv.Itoa(cfg.Generation.MaxAttempts), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port: %s", value)
		}
		cfg.Server.Port = port
	case "database.path":
		cfg.Database.Path = value
	case "templates.dir":
		cfg.Templates.Dir = value
	case "templates.watch":
		watch, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Templates.Watch = watch
	case "metrics.retention_days":
		days, err := strconv.Atoi(value)
		if err != nil || days < 1 {
			return fmt.Errorf("invalid retention days: %s", value)
		}
		cfg.Metrics.RetentionDays = days
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		bedrock, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Anthropic.UseAWSBedrock = bedrock
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "generation.max_attempts":
		attempts, err := strconv.Atoi(value)
		if err != nil || attempts < 1 {
			return fmt.Errorf("invalid attempt count: %s", value)
		}
		cfg.Generation.MaxAttempts = attempts
	case "tui.refresh_rate":
		rate, err := time.ParseDuration(value)
		if err != nil || rate <= 0 {
			return fmt.Errorf("invalid refresh rate: %s", value)
		}
		cfg.TUI.RefreshRate = rate
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
