package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return store
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestCreateSchema(t *testing.T) {
	store := newTestStore(t)

	for _, table := range []string{"discoveries", "scan_stats", "snapshots"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	for _, index := range []string{"idx_discoveries_pos", "idx_discoveries_time"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}

	// idempotent
	if err := store.CreateSchema(); err != nil {
		t.Errorf("second CreateSchema() failed: %v", err)
	}
}

func TestListDiscoveries_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	_, err = s.ListDiscoveries(0)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListDiscoveries() error = %v; want ErrNotInitialized", err)
	}
	if !strings.Contains(ErrNotInitialized.Error(), "stashfinder scan") {
		t.Errorf("ErrNotInitialized message %q should mention 'stashfinder scan'", ErrNotInitialized)
	}
}

func TestInsertAndListDiscoveries(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	discoveries := []*Discovery{
		{Pos: region.New(10, -3), StorageCount: 4, DiscoveredAt: base, Source: "feed.jsonl"},
		{Pos: region.New(-500, 20), StorageCount: 17, DiscoveredAt: base.Add(time.Hour), Source: "feed.jsonl"},
		{Pos: region.New(0, 9), StorageCount: 6, DiscoveredAt: base.Add(2 * time.Hour), Source: "import"},
	}
	for _, d := range discoveries {
		if err := store.InsertDiscovery(d); err != nil {
			t.Fatalf("InsertDiscovery(%s) failed: %v", d.Pos, err)
		}
		if d.ID == 0 {
			t.Errorf("InsertDiscovery(%s) did not set ID", d.Pos)
		}
	}

	got, err := store.ListDiscoveries(0)
	if err != nil {
		t.Fatalf("ListDiscoveries() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListDiscoveries() returned %d rows, want 3", len(got))
	}
	if got[0].Pos != region.New(0, 9) || got[2].Pos != region.New(10, -3) {
		t.Errorf("ListDiscoveries() should be newest first, got %v, %v, %v", got[0].Pos, got[1].Pos, got[2].Pos)
	}
	if !got[1].DiscoveredAt.Equal(base.Add(time.Hour)) {
		t.Errorf("DiscoveredAt = %v, want %v", got[1].DiscoveredAt, base.Add(time.Hour))
	}
	if got[1].StorageCount != 17 || got[1].Source != "feed.jsonl" {
		t.Errorf("unexpected row %+v", got[1])
	}

	limited, err := store.ListDiscoveries(2)
	if err != nil {
		t.Fatalf("ListDiscoveries(2) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListDiscoveries(2) returned %d rows", len(limited))
	}

	n, err := store.CountDiscoveries()
	if err != nil {
		t.Fatalf("CountDiscoveries() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountDiscoveries() = %d, want 3", n)
	}
}

func TestRunRecorder_RecordDiscovery(t *testing.T) {
	store := newTestStore(t)

	before := time.Now().Add(-time.Second)
	if err := store.ForRun("").RecordDiscovery(region.Record{Pos: region.New(1, 2), StorageCount: 5}, "scan"); err != nil {
		t.Fatalf("RecordDiscovery() failed: %v", err)
	}

	got, err := store.ListDiscoveries(1)
	if err != nil {
		t.Fatalf("ListDiscoveries() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 discovery, got %d", len(got))
	}
	if got[0].DiscoveredAt.Before(before.Truncate(time.Second)) {
		t.Errorf("DiscoveredAt %v is before %v", got[0].DiscoveredAt, before)
	}
}

func TestForRun(t *testing.T) {
	store := newTestStore(t)

	rec := region.Record{Pos: region.New(3, 4), StorageCount: 8}
	if err := store.ForRun("run-1").RecordDiscovery(rec, "watch"); err != nil {
		t.Fatalf("RecordDiscovery() failed: %v", err)
	}
	if err := store.ForRun("").RecordDiscovery(rec, "scan"); err != nil {
		t.Fatalf("RecordDiscovery() failed: %v", err)
	}

	got, err := store.ListDiscoveries(0)
	if err != nil {
		t.Fatalf("ListDiscoveries() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 discoveries, got %d", len(got))
	}
	runs := map[string]string{}
	for _, d := range got {
		runs[d.Source] = d.RunID
	}
	if runs["watch"] != "run-1" || runs["scan"] != "" {
		t.Errorf("unexpected run IDs %v", runs)
	}
}

func TestScanStats(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddScanStats(map[string]int{"discovered": 2, "duplicate": 1}); err != nil {
		t.Fatalf("AddScanStats() failed: %v", err)
	}
	if err := store.AddScanStats(map[string]int{"discovered": 3, "not_qualified": 7}); err != nil {
		t.Fatalf("AddScanStats() failed: %v", err)
	}
	if err := store.AddScanStats(nil); err != nil {
		t.Fatalf("AddScanStats(nil) failed: %v", err)
	}

	stats, err := store.ScanStats()
	if err != nil {
		t.Fatalf("ScanStats() failed: %v", err)
	}
	want := map[string]int{"discovered": 5, "duplicate": 1, "not_qualified": 7}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("stats[%s] = %d, want %d", k, stats[k], v)
		}
	}
}

func TestClearHistory(t *testing.T) {
	store := newTestStore(t)

	_ = store.ForRun("").RecordDiscovery(region.Record{Pos: region.New(1, 1), StorageCount: 4}, "x")
	_ = store.AddScanStats(map[string]int{"discovered": 1})

	if err := store.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory() failed: %v", err)
	}

	n, _ := store.CountDiscoveries()
	stats, _ := store.ScanStats()
	if n != 0 || len(stats) != 0 {
		t.Errorf("history not cleared: %d discoveries, stats %v", n, stats)
	}
}

func TestInsertAndGetSnapshot(t *testing.T) {
	store := newTestStore(t)

	id, err := store.InsertSnapshot("clear", 5, "/path/to/snapshot.json")
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}
	if id == 0 {
		t.Error("InsertSnapshot() should return non-zero ID")
	}

	snapshot, err := store.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if snapshot.ID != id {
		t.Errorf("Snapshot.ID = %d, want %d", snapshot.ID, id)
	}
	if snapshot.Reason != "clear" {
		t.Errorf("Snapshot.Reason = %s, want clear", snapshot.Reason)
	}
	if snapshot.StashCount != 5 {
		t.Errorf("Snapshot.StashCount = %d, want 5", snapshot.StashCount)
	}
	if snapshot.SnapshotPath != "/path/to/snapshot.json" {
		t.Errorf("Snapshot.SnapshotPath = %s, want /path/to/snapshot.json", snapshot.SnapshotPath)
	}
	if snapshot.CreatedAt.IsZero() {
		t.Error("Snapshot.CreatedAt should not be zero")
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetSnapshot(999); err == nil {
		t.Error("GetSnapshot() should return error for nonexistent snapshot")
	}
}

func TestListAndDeleteSnapshots(t *testing.T) {
	store := newTestStore(t)

	var ids []int64
	for i, reason := range []string{"clear", "import", "clear"} {
		id, err := store.InsertSnapshot(reason, i+1, "/snap/"+reason)
		if err != nil {
			t.Fatalf("InsertSnapshot() failed: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := store.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListSnapshots() returned %d snapshots, want 3", len(got))
	}
	if got[0].ID != ids[2] {
		t.Errorf("ListSnapshots() should be newest first, got ID %d first", got[0].ID)
	}

	if err := store.DeleteSnapshot(ids[0]); err != nil {
		t.Fatalf("DeleteSnapshot() failed: %v", err)
	}
	got, _ = store.ListSnapshots()
	if len(got) != 2 {
		t.Errorf("expected 2 snapshots after delete, got %d", len(got))
	}
}
