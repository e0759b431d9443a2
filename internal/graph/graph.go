// Package graph builds the content graph of a Markdown corpus: documents, the
// links between them, their inverse (backlinks), and bounded neighborhoods
// for visualization.
//
// A Graph is immutable once Build returns it and is safe for concurrent use.
package graph

import (
	"slices"

	"github.com/starford/markgraph/internal/parser"
)

// Document is one node of the graph.
type Document struct {
	ID        string          `json:"identifier"`
	Title     string          `json:"title"`
	Path      string          `json:"path"`
	Content   string          `json:"content"`
	Links     []string        `json:"links"`
	Backlinks []string        `json:"backlinks"`
	Metadata  parser.Metadata `json:"metadata"`
}

func (d *Document) clone() Document {
	c := *d
	c.Links = slices.Clone(d.Links)
	c.Backlinks = slices.Clone(d.Backlinks)
	return c
}

// ExpandedDocument is a Document whose links and backlinks are resolved to
// the documents they name. Only targets present in the graph are included,
// and the nested documents keep bare identifiers.
type ExpandedDocument struct {
	ID        string          `json:"identifier"`
	Title     string          `json:"title"`
	Path      string          `json:"path"`
	Content   string          `json:"content"`
	Links     []Document      `json:"links"`
	Backlinks []Document      `json:"backlinks"`
	Metadata  parser.Metadata `json:"metadata"`
}

// SearchableDocument is what the search index consumes for one document.
type SearchableDocument struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Content    string `json:"content"`
}

// Stats summarizes one build.
type Stats struct {
	Documents  int `json:"documents"`
	Links      int `json:"links"`
	Backlinks  int `json:"backlinks"`
	Dangling   int `json:"dangling"`
	Degraded   int `json:"degraded"`
	Duplicates int `json:"duplicates"`
}

// Graph is the full collection of documents for one build.
type Graph struct {
	docs    []*Document
	byID    map[string]*Document
	version string
	stats   Stats
}

// Len returns the number of documents.
func (g *Graph) Len() int { return len(g.docs) }

// Version is a digest of the graph contents; equal corpora give equal versions.
func (g *Graph) Version() string { return g.version }

// Stats returns the counters collected while building.
func (g *Graph) Stats() Stats { return g.stats }

// Has reports whether id names a document.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Documents returns a copy of every document in corpus order.
func (g *Graph) Documents() []Document {
	out := make([]Document, len(g.docs))
	for i, d := range g.docs {
		out[i] = d.clone()
	}
	return out
}

// Get returns a copy of the document with the given identifier.
func (g *Graph) Get(id string) (Document, bool) {
	d, ok := g.byID[id]
	if !ok {
		return Document{}, false
	}
	return d.clone(), true
}

// Expand returns the document with its links and backlinks resolved one level deep.
func (g *Graph) Expand(id string) (ExpandedDocument, bool) {
	d, ok := g.byID[id]
	if !ok {
		return ExpandedDocument{}, false
	}
	return ExpandedDocument{
		ID:        d.ID,
		Title:     d.Title,
		Path:      d.Path,
		Content:   d.Content,
		Links:     g.resolveAll(d.Links),
		Backlinks: g.resolveAll(d.Backlinks),
		Metadata:  d.Metadata,
	}, true
}

func (g *Graph) resolveAll(ids []string) []Document {
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := g.byID[id]; ok {
			out = append(out, d.clone())
		}
	}
	return out
}

// Searchable returns the search tuples for the whole corpus.
func (g *Graph) Searchable() []SearchableDocument {
	out := make([]SearchableDocument, len(g.docs))
	for i, d := range g.docs {
		out[i] = SearchableDocument{Name: d.Title, Identifier: d.ID, Content: d.Content}
	}
	return out
}
