// Package testutil provides shared test helpers for setting up corpora and search indexes.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/storage"
)

// TestIndex creates a temporary SQLite search index that is automatically cleaned up.
func TestIndex(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "markgraph-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteCorpus writes files (slash-separated relative path to content) into a
// temporary directory and returns it with a storage.FS rooted there.
func WriteCorpus(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
	store, err := storage.NewFS(root, storage.DefaultExtension)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteFile writes one corpus file, creating parent directories as needed.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
