package api

import (
	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
)

// ContentGraphResponse wraps every document of the graph.
type ContentGraphResponse struct {
	Graph []graph.Document `json:"graph" validate:"required"`
}

// DocumentResponse is a document with links and backlinks expanded.
type DocumentResponse = graph.ExpandedDocument

// NeighborhoodResponse is the two-hop subgraph around a focus document.
type NeighborhoodResponse = graph.Neighborhood

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// RebuildResponse reports the graph published by an on-demand rebuild.
type RebuildResponse struct {
	Version string      `json:"version" example:"9f86d081884c7d65..." validate:"required"`
	Stats   graph.Stats `json:"stats" validate:"required"`
}
