// Package registry holds the ranked, deduplicated set of discovered stashes.
package registry

import (
	"sort"
	"sync"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// Registry is the ordered collection of stash records. Records are kept
// sorted by StorageCount, highest first, and no two records share a
// position. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	records []region.Record
	index   map[region.ID]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{index: make(map[region.ID]struct{})}
}

// TryInsert adds rec unless a record with the same position already exists.
// It reports whether the record was added. An existing record is never
// updated, even when rec carries a different count.
func (r *Registry) TryInsert(rec region.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.index[rec.Pos]; dup {
		return false
	}
	r.index[rec.Pos] = struct{}{}
	r.records = append(r.records, rec)
	sortRecords(r.records)
	return true
}

// Clear removes every record.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.index = make(map[region.ID]struct{})
}

// Snapshot returns a copy of the records in ranked order. The caller owns
// the returned slice.
func (r *Registry) Snapshot() []region.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]region.Record, len(r.records))
	copy(out, r.records)
	return out
}

// ReplaceAll discards the current contents and loads recs. Input is not
// trusted to be ordered or unique: for repeated positions the first record
// wins, and the result is re-sorted.
func (r *Registry) ReplaceAll(recs []region.Record) {
	records, index := normalize(recs)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = records
	r.index = index
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Contains reports whether a record exists for id.
func (r *Registry) Contains(id region.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[id]
	return ok
}

// Normalize returns recs deduplicated by position (first wins) and ranked.
// recs is not modified.
func Normalize(recs []region.Record) []region.Record {
	records, _ := normalize(recs)
	return records
}

func normalize(recs []region.Record) ([]region.Record, map[region.ID]struct{}) {
	index := make(map[region.ID]struct{}, len(recs))
	records := make([]region.Record, 0, len(recs))
	for _, rec := range recs {
		if _, dup := index[rec.Pos]; dup {
			continue
		}
		index[rec.Pos] = struct{}{}
		records = append(records, rec)
	}
	sortRecords(records)
	return records, index
}

func sortRecords(records []region.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StorageCount > records[j].StorageCount
	})
}
