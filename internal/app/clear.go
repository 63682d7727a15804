package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/snapshots"
)

var (
	clearHistory bool

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Forget all registered stashes",
		Long: `Empty the saved stash list. Every region becomes eligible to be
discovered and announced again.

A snapshot of the list is taken first; 'stashfinder undo latest' brings it
back. The discovery history is kept unless --history is given.`,
		Example: `  # Forget stashes
  stashfinder clear

  # Forget stashes and the discovery history
  stashfinder clear --history`,
		Args: cobra.NoArgs,
		RunE: runClear,
	}
)

func init() {
	clearCmd.Flags().BoolVar(&clearHistory, "history", false, "also delete the discovery history")
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	snapID, err := s.backup(snapshots.ReasonClear)
	if err != nil {
		return err
	}

	s.registry.Clear()
	if err := s.save(); err != nil {
		return err
	}

	if clearHistory {
		if err := s.store.ClearHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Cleared stashes.")
	if snapID > 0 {
		fmt.Fprintf(out, "Snapshot %d saved. Undo with: stashfinder undo %d\n", snapID, snapID)
	}
	return nil
}
