package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or change the stash thresholds",
		Long: `Show or change the thresholds a region must pass to count as a stash.

Keys:
  storage-blocks          comma-separated structure types that count as storage
  minimum-storage-count   matching structures a region needs (inclusive)
  minimum-distance        blocks from the origin a region needs (inclusive)
  notifications           announce new stashes (true/false)
  notification-mode       chat, popup or both

The config file is re-read for every scan, so a running watcher picks up
changes without a restart.`,
		Example: `  # Show the current thresholds
  stashfinder config show

  # Require ten storage blocks
  stashfinder config set minimum-storage-count 10

  # Only announce in chat
  stashfinder config set notification-mode chat`,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the current thresholds",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configSetCmd = &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one threshold",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: config.Keys,
		RunE:      runConfigSet,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := getConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	th, rejected, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	warnRejected(cmd.ErrOrStderr(), rejected)

	out := cmd.OutOrStdout()
	for _, key := range config.Keys {
		value, _ := th.Get(key)
		fmt.Fprintf(out, "%-22s %s\n", key, value)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	dir, err := getConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	th, rejected, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	warnRejected(cmd.ErrOrStderr(), rejected)

	key := args[0]
	// Allow "storage-blocks chest, barrel" without quoting.
	value := strings.Join(args[1:], " ")
	if err := th.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(dir, th); err != nil {
		return err
	}

	stored, _ := th.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, stored)
	return nil
}

// warnRejected reports config lines that were ignored. Saving drops them.
func warnRejected(w io.Writer, rejected []config.Rejected) {
	for _, r := range rejected {
		fmt.Fprintf(w, "warning: config line %d ignored: %v\n", r.Line, r.Err)
	}
}
