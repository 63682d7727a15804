package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/config"
)

var (
	statePath string
	dbPath    string
	configDir string

	// RootCmd is the root command for stashfinder
	RootCmd = &cobra.Command{
		Use:   "stashfinder",
		Short: "Rank map regions by how much storage they contain",
		Long: `stashfinder reads region scans, counts the storage structures in each
region and keeps a ranked, deduplicated list of the regions that look like
stashes.

A region qualifies when it has at least minimum-storage-count matching
structures and lies at least minimum-distance from the origin. Each region
is recorded once, with the count seen when it was first discovered.

Quick Start:
  1. stashfinder scan scans.jsonl
  2. stashfinder list

Examples:
  # Process a scan feed once
  stashfinder scan scans.jsonl

  # Follow a feed while the scanner is running
  stashfinder watch scans.jsonl

  # Show the ranked stashes
  stashfinder list

  # Only count chests and shulker boxes
  stashfinder config set storage-blocks chest,shulker_box`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "stashfinder: ranked storage hotspot registry")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'stashfinder scan <feed>' to process region scans.")
			fmt.Fprintln(out, "Run 'stashfinder --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&statePath, "state", "", "stash state file (default: ~/.stashfinder/stashes.json)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "discovery history database (default: ~/.stashfinder/history.db)")
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: $XDG_CONFIG_HOME/stashfinder)")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(clearCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(undoCmd)
	RootCmd.AddCommand(configCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// dataDir returns ~/.stashfinder, creating it if needed.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".stashfinder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create stashfinder directory: %w", err)
	}
	return dir, nil
}

// getStatePath returns the state file path, using the flag value or default
func getStatePath() (string, error) {
	if statePath != "" {
		return statePath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stashes.json"), nil
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// getConfigDir returns the config directory, using the flag value or default
func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return config.Dir()
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
