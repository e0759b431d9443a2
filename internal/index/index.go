package index

import "github.com/starford/markgraph/internal/graph"

// DefaultLimit caps search results when the caller gives no limit.
const DefaultLimit = 20

// SearchIndex is the search collaborator fed from every graph build.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type SearchIndex interface {
	Sync(docs []graph.SearchableDocument) (SyncStats, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies SearchIndex at compile time.
var _ SearchIndex = (*DB)(nil)
