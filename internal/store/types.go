package store

import (
	"time"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// Discovery records when a stash was first found.
type Discovery struct {
	ID           int64
	Pos          region.ID
	StorageCount int
	DiscoveredAt time.Time
	Source       string // command that found it: "scan" or "watch"
	RunID        string
}

// Snapshot is a saved copy of the stash list taken before it was replaced.
type Snapshot struct {
	ID           int64
	CreatedAt    time.Time
	Reason       string
	StashCount   int
	SnapshotPath string
}
