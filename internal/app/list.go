package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/output"
	"github.com/blackwell-systems/stashfinder/internal/registry"
)

var (
	listLimit int

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Show registered stashes, densest first",
		Long: `Show the registered stashes ranked by storage block count.

Regions with the same count keep the order in which they were discovered.
The block column gives the centre of the region in block coordinates, for
navigating to it.`,
		Example: `  # Show the top 20 stashes
  stashfinder list

  # Show all stashes
  stashfinder list --limit 0`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum rows to show (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	path, err := getStatePath()
	if err != nil {
		return fmt.Errorf("failed to get state path: %w", err)
	}

	reg := registry.New()
	reg.ReplaceAll(codec.LoadFile(path, logging.NewFromEnv()))

	fmt.Fprint(cmd.OutOrStdout(), output.RenderStashTable(reg.Snapshot(), listLimit))
	return nil
}
