package snapshots

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/region"
	"github.com/blackwell-systems/stashfinder/internal/store"
)

// CreateSnapshot saves records to a new snapshot file and returns the
// snapshot ID. An empty stash list is not worth restoring and yields ID 0.
func (m *Manager) CreateSnapshot(records []region.Record, reason string) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(m.snapshotDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// YYYY-MM-DD-HHMMSS.nnnnnnnnn.json keeps names unique within a second.
	snapshotFilename := fmt.Sprintf("%s-%s.json", time.Now().Format("2006-01-02-150405.000000000"), reason)
	snapshotPath := filepath.Join(m.snapshotDir, snapshotFilename)

	if err := codec.SaveFile(snapshotPath, records); err != nil {
		return 0, fmt.Errorf("failed to write snapshot file: %w", err)
	}

	snapshotID, err := m.store.InsertSnapshot(reason, len(records), snapshotPath)
	if err != nil {
		// Try to clean up the file if the DB insert fails
		os.Remove(snapshotPath)
		return 0, fmt.Errorf("failed to insert snapshot into database: %w", err)
	}

	return snapshotID, nil
}

// ListSnapshots returns all snapshots, newest first.
func (m *Manager) ListSnapshots() ([]*store.Snapshot, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// CleanupOldSnapshots removes snapshots older than MaxAgeDays and returns
// how many were removed.
func (m *Manager) CleanupOldSnapshots() (int, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	cutoffDate := time.Now().AddDate(0, 0, -MaxAgeDays)
	deletedCount := 0

	for _, snapshot := range snapshots {
		if !snapshot.CreatedAt.Before(cutoffDate) {
			continue
		}
		if err := os.Remove(snapshot.SnapshotPath); err != nil && !os.IsNotExist(err) {
			return deletedCount, fmt.Errorf("failed to delete snapshot file %s: %w", snapshot.SnapshotPath, err)
		}
		if err := m.store.DeleteSnapshot(snapshot.ID); err != nil {
			return deletedCount, err
		}
		deletedCount++
	}

	return deletedCount, nil
}
