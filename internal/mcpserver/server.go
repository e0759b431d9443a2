// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the content graph as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/markgraph/internal/apperr"
	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/siteservice"
)

const conventionsURI = "markgraph://link-conventions"

// Service is the read surface the tools depend on.
type Service interface {
	Documents(ctx context.Context) ([]graph.Document, error)
	Document(ctx context.Context, id string) (*graph.ExpandedDocument, error)
	Backlinks(ctx context.Context, id string) ([]graph.Document, error)
	Neighborhood(ctx context.Context, focus string) (graph.Neighborhood, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
}

// Verify *siteservice.Service satisfies Service at compile time.
var _ Service = (*siteservice.Service)(nil)

// Server wraps the MCP server with content graph tools.
type Server struct {
	mcp *server.MCPServer
	svc Service
}

// DocumentSummary is one entry of list_documents.
type DocumentSummary struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Links      int    `json:"links"`
	Backlinks  int    `json:"backlinks"`
}

// New creates a new MCP server with all tools registered.
func New(svc Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"markgraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List every document of the content graph with its link counts."),
		mcp.WithString("prefix", mcp.Description("Optional folder, e.g. guides/; matches the folder document and everything below it")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read one document with its outgoing links and backlinks resolved to documents."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Document identifier, e.g. guides/My%20Guide or guides/My Guide")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Identifier of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_neighborhood",
		mcp.WithDescription("Return the nodes and edges within two hops of a document, as used for graph visualization."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Identifier of the focus document")),
	), s.getNeighborhood)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document names and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddResource(
		mcp.NewResource(conventionsURI, "Link Conventions",
			mcp.WithResourceDescription("How Markdown links resolve to document identifiers."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := graph.CanonicalID(req.GetString("prefix", ""))
	docs, err := s.svc.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		if prefix != "" && d.ID != prefix && !strings.HasPrefix(d.ID, prefix+"/") {
			continue
		}
		out = append(out, DocumentSummary{
			Identifier: d.ID,
			Title:      d.Title,
			Links:      len(d.Links),
			Backlinks:  len(d.Backlinks),
		})
	}
	return jsonResult(out)
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(ctx, graph.CanonicalID(id))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(doc)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, graph.CanonicalID(id))
	if err != nil {
		return errorResult(id, err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	ids := make([]string, len(bl))
	for i, d := range bl {
		ids[i] = d.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) getNeighborhood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Neighborhood(ctx, graph.CanonicalID(id))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(n)
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", index.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readConventionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      conventionsURI,
			MIMEType: "text/markdown",
			Text:     LinkConventions,
		},
	}, nil
}
