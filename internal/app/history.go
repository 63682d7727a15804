package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/output"
	"github.com/blackwell-systems/stashfinder/internal/registry"
	"github.com/blackwell-systems/stashfinder/internal/store"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show when stashes were discovered",
		Long: `Show the discovery history, newest first.

Unlike the stash list, the history survives activation and 'clear', so a
region that was discovered in several runs appears once per run. Regions
that are still in the stash list are ticked in the Listed column.`,
		Example: `  # Show the last 20 discoveries
  stashfinder history

  # Show everything
  stashfinder history --limit 0`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	statePath, err := getStatePath()
	if err != nil {
		return fmt.Errorf("failed to get state path: %w", err)
	}
	reg := registry.New()
	reg.ReplaceAll(codec.LoadFile(statePath, logging.NewFromEnv()))

	path, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}

	db, err := store.New(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	discoveries, err := db.ListDiscoveries(historyLimit)
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprint(out, output.RenderHistoryTable(nil, nil))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list discoveries: %w", err)
	}
	fmt.Fprint(out, output.RenderHistoryTable(discoveries, reg.Contains))

	total, err := db.CountDiscoveries()
	if err != nil {
		return fmt.Errorf("failed to count discoveries: %w", err)
	}
	if total > len(discoveries) {
		fmt.Fprintf(out, "Showing %d of %d discoveries (use --limit 0 to show all)\n", len(discoveries), total)
	}

	stats, err := db.ScanStats()
	if err != nil {
		return fmt.Errorf("failed to read scan stats: %w", err)
	}
	if len(stats) > 0 {
		lines := 0
		for _, n := range stats {
			lines += n
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderScanSummary(lines, 0, stats))
	}
	return nil
}
