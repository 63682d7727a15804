package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/registry"
	"github.com/blackwell-systems/stashfinder/internal/snapshots"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stash list with one from another file",
	Long: `Replace the saved stash list with the stashes in another stash file,
for example one copied from a different machine.

Entries that are malformed are dropped. When a region appears more than once
the first entry wins, and the result is ranked by storage count.

The current list is snapshotted first, so an import can be undone.`,
	Example: `  stashfinder import backup/stashes.json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.backup(snapshots.ReasonImport); err != nil {
		return err
	}

	records := codec.Decode(data)
	unique := registry.Normalize(records)
	s.registry.ReplaceAll(unique)
	if err := s.save(); err != nil {
		return err
	}

	dropped := len(records) - len(unique)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s", stashCount(s.registry.Len()))
	if dropped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d duplicate(s) dropped)", dropped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
