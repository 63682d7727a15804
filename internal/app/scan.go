package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/output"
	"github.com/blackwell-systems/stashfinder/internal/watcher"
)

var (
	scanKeep  bool
	scanQuiet bool

	scanCmd = &cobra.Command{
		Use:   "scan <feed>",
		Short: "Process a region scan feed once",
		Long: `Read every region scan in a JSON Lines feed and register the regions
that qualify as stashes.

Each line of the feed describes one region:

  {"x":10,"z":-3,"structures":["chest","chest","furnace"],"fresh":true}

A region qualifies when at least minimum-storage-count of its structures
are storage blocks and it lies at least minimum-distance from the origin.
Every newly registered region is announced and appended to the discovery
history.

By default each run starts with an empty stash list. Use --keep to add to
the stashes saved by earlier runs instead.`,
		Example: `  # Process a feed
  stashfinder scan scans.jsonl

  # Accumulate stashes across runs
  stashfinder scan --keep scans.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanKeep, "keep", false, "keep stashes from earlier runs")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress the summary")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	s.activate(scanKeep)

	spinner := output.NewSpinner("Scanning regions...")
	spinner.SetWriter(cmd.ErrOrStderr())

	feed, err := watcher.NewFeed(args[0], s.controller(out, "scan", nil), watcher.FeedOptions{
		Thresholds: s.thresholds,
		Aliases:    s.aliases(),
		Logger:     s.log,
		Progress:   spinner.Update,
	})
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}

	if !scanQuiet {
		spinner.Start()
	}
	stats, err := feed.Flush()
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to process feed: %w", err)
	}

	if err := s.store.AddScanStats(stats.Outcomes); err != nil {
		return fmt.Errorf("failed to record scan stats: %w", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	if !scanQuiet {
		fmt.Fprint(out, output.RenderScanSummary(stats.Lines, stats.Malformed, stats.Outcomes))
		fmt.Fprintf(out, "\n%s registered. Run 'stashfinder list' to see them.\n", stashCount(s.registry.Len()))
	}
	return nil
}

func stashCount(n int) string {
	if n == 1 {
		return "1 stash"
	}
	return fmt.Sprintf("%d stashes", n)
}
