package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/markgraph/internal/graph"
)

// Handler holds API route handlers.
type Handler struct {
	svc Service
}

// NewHandler creates a new Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// documentID extracts the identifier from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. guides%2FMy%20Note) as well
// as plain and percent-encoded segments.
func documentID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	if strings.Contains(strings.ToUpper(raw), "%2F") {
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
	}
	return graph.CanonicalID(raw)
}

// etagMatches reports whether an If-None-Match header names etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// ContentGraph handles GET /api/content-graph.
//
//	@Summary		Get every document of the content graph
//	@Tags			graph
//	@Produce		json
//	@Param			If-None-Match	header		string	false	"Graph version from a previous response"
//	@Success		200				{object}	ContentGraphResponse
//	@Success		304				"Graph unchanged"
//	@Failure		503				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/content-graph [get]
func (h *Handler) ContentGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph()
	if err != nil {
		writeServiceError(w, "content graph", err)
		return
	}
	etag := `"` + g.Version() + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, ContentGraphResponse{Graph: g.Documents()})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get one document with links and backlinks expanded
//	@Tags			graph
//	@Produce		json
//	@Param			identifier	path		string	true	"Document identifier"
//	@Success		200			{object}	DocumentResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{identifier} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("identifier is required"))
		return
	}
	doc, err := h.svc.Document(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Neighborhood handles GET /api/neighborhood/*.
//
//	@Summary		Get the two-hop neighborhood of a document
//	@Tags			graph
//	@Produce		json
//	@Param			identifier	path		string	true	"Focus document identifier"
//	@Success		200			{object}	NeighborhoodResponse
//	@Security		BearerAuth
//	@Router			/neighborhood/{identifier} [get]
func (h *Handler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("identifier is required"))
		return
	}
	n, err := h.svc.Neighborhood(r.Context(), id)
	if err != nil {
		writeServiceError(w, "neighborhood", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Rebuild handles POST /api/rebuild.
//
//	@Summary		Rebuild the content graph from the corpus
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Rebuild(r.Context())
	if err != nil {
		writeServiceError(w, "rebuild", err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Version: g.Version(), Stats: g.Stats()})
}
