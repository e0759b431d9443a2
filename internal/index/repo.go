package index

import (
	"database/sql"
	"fmt"
)

// Row is one indexed document.
type Row struct {
	Identifier string
	Name       string
	Checksum   string
	Content    string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Snippet    string `json:"snippet"`
}

// upsert inserts or replaces a document and its FTS entry inside tx.
func upsert(tx *sql.Tx, r Row) error {
	_, err := tx.Exec(`
		INSERT INTO documents (identifier, name, checksum, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			name     = excluded.name,
			checksum = excluded.checksum,
			content  = excluded.content
	`, r.Identifier, r.Name, r.Checksum, r.Content)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}
	return ftsUpsert(tx, r.Identifier, r.Name, r.Content)
}

// remove deletes a document and its FTS entry inside tx.
func remove(tx *sql.Tx, identifier string) error {
	if err := ftsDelete(tx, identifier); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE identifier = ?`, identifier); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// AllChecksums returns the stored checksum of every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT identifier, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Identifier, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
