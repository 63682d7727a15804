package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/output"
	"github.com/blackwell-systems/stashfinder/internal/snapshots"
)

var (
	undoFlagList bool
	undoFlagYes  bool
)

var undoCmd = &cobra.Command{
	Use:   "undo [snapshot-id | latest]",
	Short: "Restore the stash list from a snapshot",
	Long: `Restore a stash list that was replaced by 'clear' or 'import'.

Snapshots are automatically taken before the stash list is cleared or
replaced. Snapshots older than 90 days are pruned.

Arguments:
  snapshot-id  The numeric ID of the snapshot to restore
  latest       Restore the most recent snapshot`,
	Example: `  stashfinder undo --list           # List all snapshots
  stashfinder undo latest           # Restore latest snapshot
  stashfinder undo 3 --yes          # Restore snapshot 3 without confirmation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoFlagList, "list", false, "List available snapshots")
	undoCmd.Flags().BoolVar(&undoFlagYes, "yes", false, "Skip confirmation prompt")
}

func runUndo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	mgr := s.snapshots()

	if undoFlagList {
		return listSnapshots(out, mgr)
	}

	if len(args) == 0 {
		return fmt.Errorf("snapshot ID or 'latest' required\n\nUsage: stashfinder undo [snapshot-id | latest]\n\nUse 'stashfinder undo --list' to see available snapshots")
	}

	var snapshotID int64
	if strings.ToLower(args[0]) == "latest" {
		snapshotID, err = mgr.Latest()
		if err != nil {
			return err
		}
		if snapshotID == 0 {
			return fmt.Errorf("no snapshots available\n\nSnapshots are taken by 'stashfinder clear' and 'stashfinder import'")
		}
		fmt.Fprintf(out, "Using latest snapshot: ID %d\n", snapshotID)
	} else {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot ID: %s (must be a number or 'latest')", args[0])
		}
		snapshotID = id
	}

	records, err := mgr.RestoreSnapshot(snapshotID)
	if err != nil {
		return fmt.Errorf("%w\n\nRun 'stashfinder undo --list' to see available snapshots", err)
	}

	fmt.Fprintf(out, "\nSnapshot %d holds %s; the current list has %s.\n",
		snapshotID, stashCount(len(records)), stashCount(s.registry.Len()))

	if !undoFlagYes && !confirm(cmd.InOrStdin(), out, "Replace the current stash list?") {
		fmt.Fprintln(out, "Restoration cancelled.")
		return nil
	}

	s.registry.ReplaceAll(records)
	if err := s.save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Restored %s from snapshot %d\n", stashCount(s.registry.Len()), snapshotID)
	return nil
}

// listSnapshots displays all available snapshots.
func listSnapshots(out io.Writer, mgr *snapshots.Manager) error {
	snaps, err := mgr.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots available.")
		fmt.Fprintln(out, "\nSnapshots are taken automatically by 'clear' and 'import'.")
		return nil
	}

	fmt.Fprintf(out, "\nAvailable snapshots:\n\n")
	fmt.Fprint(out, output.RenderSnapshotTable(snaps))
	fmt.Fprintf(out, "\nRestore with: stashfinder undo <id>\n")
	return nil
}

// confirm asks a yes/no question on in. Anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
