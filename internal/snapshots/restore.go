package snapshots

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/region"
)

// RestoreSnapshot returns the stash list saved in snapshot id. Unlike the
// state file, an unreadable or empty snapshot is an error.
func (m *Manager) RestoreSnapshot(id int64) ([]region.Record, error) {
	snapshot, err := m.store.GetSnapshot(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	data, err := os.ReadFile(snapshot.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot file: %w", err)
	}

	records := codec.Decode(data)
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %d holds no stashes (file %s)", id, snapshot.SnapshotPath)
	}
	return records, nil
}

// Latest returns the ID of the newest snapshot, or 0 if there is none.
func (m *Manager) Latest() (int64, error) {
	snaps, err := m.ListSnapshots()
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}
	return snaps[0].ID, nil
}
