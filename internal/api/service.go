package api

import (
	"context"

	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/siteservice"
)

// Service is the read and rebuild surface the handlers depend on.
type Service interface {
	Graph() (*graph.Graph, error)
	Document(ctx context.Context, id string) (*graph.ExpandedDocument, error)
	Neighborhood(ctx context.Context, focus string) (graph.Neighborhood, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
	Rebuild(ctx context.Context) (*graph.Graph, error)
}

// Verify *siteservice.Service satisfies Service at compile time.
var _ Service = (*siteservice.Service)(nil)
