package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// Discovery operations

// InsertDiscovery appends a discovery to the history.
func (s *Store) InsertDiscovery(d *Discovery) error {
	query := `
		INSERT INTO discoveries (x, z, storage_count, discovered_at, source, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		d.Pos.X,
		d.Pos.Z,
		d.StorageCount,
		d.DiscoveredAt.UTC().Format(time.RFC3339),
		d.Source,
		d.RunID,
	)
	if err != nil {
		return wrapErr(fmt.Sprintf("insert discovery %s", d.Pos), err)
	}

	if id, err := res.LastInsertId(); err == nil {
		d.ID = id
	}
	return nil
}

// RunRecorder records discoveries tagged with one activation's run ID.
type RunRecorder struct {
	store *Store
	runID string
}

// ForRun returns a recorder that tags discoveries with runID.
func (s *Store) ForRun(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RecordDiscovery stores rec as discovered now from source.
func (r *RunRecorder) RecordDiscovery(rec region.Record, source string) error {
	return r.store.InsertDiscovery(&Discovery{
		Pos:          rec.Pos,
		StorageCount: rec.StorageCount,
		DiscoveredAt: time.Now(),
		Source:       source,
		RunID:        r.runID,
	})
}

// ListDiscoveries returns the most recent discoveries first. A limit of
// zero or less returns all of them.
func (s *Store) ListDiscoveries(limit int) ([]*Discovery, error) {
	query := `
		SELECT id, x, z, storage_count, discovered_at, source, run_id
		FROM discoveries
		ORDER BY discovered_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("list discoveries", err)
	}
	defer rows.Close()

	var discoveries []*Discovery
	for rows.Next() {
		var d Discovery
		var discoveredAt string
		var source, runID sql.NullString

		if err := rows.Scan(&d.ID, &d.Pos.X, &d.Pos.Z, &d.StorageCount, &discoveredAt, &source, &runID); err != nil {
			return nil, fmt.Errorf("failed to scan discovery row: %w", err)
		}

		d.Source = source.String
		d.RunID = runID.String
		d.DiscoveredAt, err = time.Parse(time.RFC3339, discoveredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse discovered_at for %s: %w", d.Pos, err)
		}

		discoveries = append(discoveries, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discoveries: %w", err)
	}

	return discoveries, nil
}

// CountDiscoveries returns the number of recorded discoveries.
func (s *Store) CountDiscoveries() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM discoveries`).Scan(&n); err != nil {
		return 0, wrapErr("count discoveries", err)
	}
	return n, nil
}

// ClearHistory deletes every discovery and scan counter.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec(`DELETE FROM discoveries; DELETE FROM scan_stats;`); err != nil {
		return wrapErr("clear history", err)
	}
	return nil
}

// Scan statistics

// AddScanStats adds the per-outcome counts in a single transaction.
func (s *Store) AddScanStats(counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_stats (outcome, count) VALUES (?, ?)
		ON CONFLICT(outcome) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapErr("prepare scan stats", err)
	}
	defer stmt.Close()

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	for _, outcome := range outcomes {
		if _, err := stmt.Exec(outcome, counts[outcome]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to add scan stat %s: %w", outcome, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan stats: %w", err)
	}
	return nil
}

// ScanStats returns the accumulated per-outcome scan counts.
func (s *Store) ScanStats() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT outcome, count FROM scan_stats`)
	if err != nil {
		return nil, wrapErr("get scan stats", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[outcome] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan stats: %w", err)
	}
	return stats, nil
}

// Snapshot operations

// snapshotTimeFormat is fixed width so created_at sorts as text.
const snapshotTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// InsertSnapshot records a snapshot file and returns its ID.
func (s *Store) InsertSnapshot(reason string, stashCount int, path string) (int64, error) {
	query := `
		INSERT INTO snapshots (created_at, reason, stash_count, snapshot_path)
		VALUES (?, ?, ?, ?)
	`

	res, err := s.db.Exec(query, time.Now().UTC().Format(snapshotTimeFormat), reason, stashCount, path)
	if err != nil {
		return 0, wrapErr("insert snapshot", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot ID: %w", err)
	}
	return id, nil
}

// GetSnapshot returns the snapshot with the given ID.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, reason, stash_count, snapshot_path
		FROM snapshots WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get snapshot %d", id), err)
	}
	return snap, nil
}

// ListSnapshots returns every snapshot, newest first.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, reason, stash_count, snapshot_path
		FROM snapshots
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, wrapErr("list snapshots", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshot removes the snapshot row. The file is left to the caller.
func (s *Store) DeleteSnapshot(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return wrapErr(fmt.Sprintf("delete snapshot %d", id), err)
	}
	return nil
}

func scanSnapshot(scan func(dest ...any) error) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	var reason sql.NullString
	var count sql.NullInt64

	if err := scan(&snap.ID, &createdAt, &reason, &count, &snap.SnapshotPath); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	snap.CreatedAt = t
	snap.Reason = reason.String
	snap.StashCount = int(count.Int64)
	return &snap, nil
}
