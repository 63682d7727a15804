// Package codec reads and writes the persisted stash registry.
//
// The state file is a JSON array of records:
//
//	[
//	  {
//	    "pos": {"x": 10, "z": -3},
//	    "storageCount": 4
//	  }
//	]
//
// Unknown fields are ignored. Loading never fails: the registry is a
// rebuildable discovery cache, so unreadable or malformed state yields an
// empty record list. Saving surfaces I/O errors to the caller.
package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/region"
)

type wireID struct {
	X *int `json:"x"`
	Z *int `json:"z"`
}

type wireRecord struct {
	Pos          *wireID `json:"pos"`
	StorageCount *int    `json:"storageCount"`
}

// Encode renders records as indented JSON in the order given.
func Encode(records []region.Record) ([]byte, error) {
	if records == nil {
		records = []region.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode stashes: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses data into records. Empty or malformed input yields an empty
// slice. Entries missing a coordinate or with a storage count below one are
// dropped; the rest are returned in file order without deduplication.
func Decode(data []byte) []region.Record {
	records, _ := decode(data)
	return records
}

// decode is Decode that also reports why a document was rejected.
func decode(data []byte) ([]region.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []region.Record{}, err
	}

	records := make([]region.Record, 0, len(raw))
	for _, msg := range raw {
		var w wireRecord
		if err := json.Unmarshal(msg, &w); err != nil {
			continue
		}
		if w.Pos == nil || w.Pos.X == nil || w.Pos.Z == nil {
			continue
		}
		if w.StorageCount == nil || *w.StorageCount < 1 {
			continue
		}
		records = append(records, region.Record{
			Pos:          region.New(*w.Pos.X, *w.Pos.Z),
			StorageCount: *w.StorageCount,
		})
	}
	return records, nil
}

// LoadFile reads records from path. A missing, unreadable or malformed file
// is logged and yields an empty slice.
func LoadFile(path string, log logging.Logger) []region.Record {
	if log == nil {
		log = logging.Noop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("could not read stash state, starting empty", logging.String("path", path), logging.Err(err))
		}
		return []region.Record{}
	}

	records, err := decode(data)
	if err != nil {
		log.Warn("malformed stash state, starting empty", logging.String("path", path), logging.Err(err))
		return []region.Record{}
	}
	return records
}

// SaveFile writes records to path via a temp file and rename, creating the
// parent directory if needed.
func SaveFile(path string, records []region.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stashes-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
