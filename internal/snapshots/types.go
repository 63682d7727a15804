package snapshots

import (
	"github.com/blackwell-systems/stashfinder/internal/store"
)

// Reasons recorded with a snapshot.
const (
	ReasonClear  = "clear"
	ReasonImport = "import"
)

// MaxAgeDays is how long snapshot files are kept by CleanupOldSnapshots.
const MaxAgeDays = 90

// Manager manages snapshot creation, restoration, and cleanup.
//
// A snapshot file is an ordinary stash file, so it can also be fed to
// 'stashfinder import'. Its metadata lives in the history store.
type Manager struct {
	store       *store.Store
	snapshotDir string
}

// New creates a new snapshot Manager.
func New(store *store.Store, snapshotDir string) *Manager {
	return &Manager{
		store:       store,
		snapshotDir: snapshotDir,
	}
}
