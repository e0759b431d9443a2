package index

import (
	"fmt"

	"github.com/starford/markgraph/internal/checksum"
	"github.com/starford/markgraph/internal/graph"
)

// SyncStats counts what one Sync changed.
type SyncStats struct {
	Upserted  int `json:"upserted"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Sync brings the index in line with docs in a single transaction:
//   - new/changed documents are upserted
//   - documents absent from docs are deleted
//
// Readers never observe a half-applied build.
func (db *DB) Sync(docs []graph.SearchableDocument) (SyncStats, error) {
	var stats SyncStats

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return stats, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	live := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		live[d.Identifier] = struct{}{}
		cs := checksum.Sum([]byte(d.Name + "\x00" + d.Content))
		if checksums[d.Identifier] == cs {
			stats.Unchanged++
			continue
		}
		if err := upsert(tx, Row{Identifier: d.Identifier, Name: d.Name, Checksum: cs, Content: d.Content}); err != nil {
			return SyncStats{}, err
		}
		stats.Upserted++
	}

	for id := range checksums {
		if _, ok := live[id]; ok {
			continue
		}
		if err := remove(tx, id); err != nil {
			return SyncStats{}, err
		}
		stats.Removed++
	}

	if err := tx.Commit(); err != nil {
		return SyncStats{}, fmt.Errorf("index: commit sync: %w", err)
	}
	return stats, nil
}
