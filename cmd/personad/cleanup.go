package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/metrics"
)

var (
	cleanupOlderThan int
	cleanupDryRun    bool
	cleanupForce     bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old validation records",
	Long: `Delete validation records older than the retention window.

The window defaults to the configured retention (30 days unless changed).
Running cleanup twice is safe; the second run deletes nothing.

Examples:
  personad cleanup                    # Delete records older than the configured retention
  personad cleanup --older-than 7     # Delete records older than 7 days
  personad cleanup --dry-run          # Show what would be deleted
  personad cleanup --force            # Skip the confirmation prompt`,
	RunE: runCleanupCmd,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupOlderThan, "older-than", 0, "Delete records older than this many days (0 = configured retention)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Show what would be deleted without deleting")
	cleanupCmd.Flags().BoolVarP(&cleanupForce, "force", "f", false, "Skip confirmation prompt")
}

func runCleanupCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	olderThan := cleanupOlderThan
	if olderThan <= 0 {
		olderThan = cfg.Metrics.RetentionDays
	}
	if olderThan <= 0 {
		olderThan = metrics.DefaultRetentionDays
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.CountOlderThan(olderThan)
	if err != nil {
		return fmt.Errorf("count old records: %w", err)
	}

	if count == 0 {
		fmt.Printf("No records older than %d days.\n", olderThan)
		return nil
	}

	if cleanupDryRun {
		fmt.Printf("Dry run: would delete %d record(s) older than %d days.\n", count, olderThan)
		return nil
	}

	if !cleanupForce {
		fmt.Printf("Delete %d record(s) older than %d days? [y/N] ", count, olderThan)
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cleanup cancelled.")
			return nil
		}
	}

	deleted, err := store.Cleanup(olderThan)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Printf("Deleted %d record(s) older than %d days.\n", deleted, olderThan)
	return nil
}
