package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/siteservice"
	"github.com/starford/markgraph/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return corpusServer(t, map[string]string{
		"a.md":             "links to [b](b.md) and [c](notes/My%20Note.md)",
		"b.md":             "plain text about turbines",
		"notes/My Note.md": "back to [a](../a.md)",
	})
}

func corpusServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	_, store := testutil.WriteCorpus(t, files)
	svc, err := siteservice.NewService(store, testutil.TestIndex(t),
		siteservice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_document":
		result, err = srv.getDocument(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_neighborhood":
		result, err = srv.getNeighborhood(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListDocuments(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]any{})
	var docs []DocumentSummary
	if err := json.Unmarshal([]byte(resultText(r)), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("documents = %d, want 3", len(docs))
	}

	r = callTool(t, srv, "list_documents", map[string]any{"prefix": "notes/"})
	docs = nil
	_ = json.Unmarshal([]byte(resultText(r)), &docs)
	if len(docs) != 1 || docs[0].Identifier != "notes/My%20Note" || docs[0].Backlinks != 1 {
		t.Errorf("filtered = %+v", docs)
	}
}

func TestListDocuments_PrefixMatchesWholeSegments(t *testing.T) {
	srv := corpusServer(t, map[string]string{
		"guides.md":       "",
		"guides/a.md":     "",
		"guides-old/x.md": "",
		"guidesextra.md":  "",
	})

	r := callTool(t, srv, "list_documents", map[string]any{"prefix": "guides/"})
	var docs []DocumentSummary
	if err := json.Unmarshal([]byte(resultText(r)), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := make([]string, len(docs))
	for i, d := range docs {
		got[i] = d.Identifier
	}
	sort.Strings(got)
	if strings.Join(got, ",") != "guides,guides/a" {
		t.Errorf("identifiers = %v, want [guides guides/a]", got)
	}
}

func TestGetDocument(t *testing.T) {
	srv := testServer(t)

	for _, id := range []string{"notes/My Note", "notes/My%20Note"} {
		r := callTool(t, srv, "get_document", map[string]any{"identifier": id})
		if r.IsError {
			t.Fatalf("%s: %s", id, resultText(r))
		}
		var doc graph.ExpandedDocument
		_ = json.Unmarshal([]byte(resultText(r)), &doc)
		if doc.Title != "My Note" || len(doc.Links) != 1 || doc.Links[0].ID != "a" {
			t.Errorf("%s: doc = %+v", id, doc)
		}
	}
}

func TestGetDocumentMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_document", map[string]any{"identifier": "nope"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestGetDocumentRequiresIdentifier(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_document", map[string]any{})
	if !r.IsError {
		t.Error("expected error without identifier")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]any{"identifier": "b"})
	if text := resultText(r); text != "a" {
		t.Errorf("backlinks = %q, want a", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"identifier": "a"})
	if text := resultText(r); text != "notes/My%20Note" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestGetNeighborhood(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_neighborhood", map[string]any{"identifier": "b"})
	var n graph.Neighborhood
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// b <- a <-> My Note
	if len(n.Nodes) != 3 || n.Nodes[0].ID != "b" || !n.Nodes[0].Selected {
		t.Errorf("nodes = %+v", n.Nodes)
	}
}

func TestSearchDocuments(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_documents", map[string]any{"query": "turbines", "limit": 5})
	var results []index.SearchResult
	_ = json.Unmarshal([]byte(resultText(r)), &results)
	if len(results) != 1 || results[0].Identifier != "b" {
		t.Errorf("results = %+v", results)
	}
}

func TestConventionsResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readConventionsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(tc.Text, "Identifiers") {
		t.Errorf("resource = %+v", contents)
	}
}
