// Package storage provides read access to the Markdown corpus on disk.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/markgraph/internal/models"
)

// DefaultExtension is the Markdown file extension used when none is configured.
const DefaultExtension = ".md"

// Source is the interface the graph builder reads a corpus through.
type Source interface {
	// List returns every Markdown file under the root, in lexical path order.
	List() ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Extension is the Markdown extension, including the leading dot.
	Extension() string
}

// FS implements Source backed by the local file system.
type FS struct {
	root string // absolute path to corpus directory
	ext  string
}

// Verify *FS satisfies Source at compile time.
var _ Source = (*FS)(nil)

// NewFS creates a new FS source rooted at the given directory.
// The directory must already exist. An empty ext selects DefaultExtension.
func NewFS(root, ext string) (*FS, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, ext: ext}, nil
}

// Root returns the absolute corpus root.
func (f *FS) Root() string { return f.root }

// Extension returns the configured Markdown extension.
func (f *FS) Extension() string { return f.ext }

// safePath resolves a relative path against the corpus root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes corpus root: %s", rel)
	}
	return abs, nil
}

// List walks the corpus and returns metadata for every file carrying the
// Markdown extension. Hidden directories (.git, .obsidian, ...) are skipped.
// Failing to read the root itself is an error; unreadable subdirectories are
// skipped.
func (f *FS) List() ([]models.FileMeta, error) {
	var out []models.FileMeta
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == f.root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != f.root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		// A bare ".md" has no name to derive an identifier from.
		if d.Name() == f.ext || !strings.HasSuffix(d.Name(), f.ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return nil
		}
		out = append(out, models.FileMeta{
			Path:      filepath.ToSlash(rel),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a corpus file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}
