// Package siteservice owns the published content graph: it rebuilds it from
// the corpus, feeds the search index, and answers the read-side queries.
package siteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/markgraph/internal/apperr"
	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/metrics"
	"github.com/starford/markgraph/internal/storage"
)

// RebuildFunc is called after a new graph has been published.
type RebuildFunc func(g *graph.Graph)

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds the parallel reads of each build.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records builds, searches and cache use on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithNeighborhoodCache keeps up to size computed neighborhoods. Zero disables caching.
func WithNeighborhoodCache(size int) Option {
	return func(s *Service) { s.cacheSize = size }
}

// WithOnRebuild registers a callback run after each published rebuild.
func WithOnRebuild(fn RebuildFunc) Option {
	return func(s *Service) { s.onRebuild = fn }
}

// Service coordinates the corpus, the published graph and the search index.
type Service struct {
	src     storage.Source
	idx     index.SearchIndex
	logger  *slog.Logger
	metrics *metrics.Recorder

	workers   int
	cacheSize int
	cache     *lru.Cache[string, graph.Neighborhood]
	onRebuild RebuildFunc

	current   atomic.Pointer[graph.Graph]
	rebuildMu sync.Mutex
}

// NewService creates a service. No graph is published until the first Rebuild.
func NewService(src storage.Source, idx index.SearchIndex, opts ...Option) (*Service, error) {
	s := &Service{
		src:    src,
		idx:    idx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		c, err := lru.New[string, graph.Neighborhood](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("siteservice: neighborhood cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Rebuild builds a fresh graph and publishes it atomically. Rebuilds are
// serialized. If the build fails the previously published graph stays in
// place and the error is returned.
func (s *Service) Rebuild(ctx context.Context) (*graph.Graph, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	g, err := graph.Build(ctx, s.src, graph.WithWorkers(s.workers), graph.WithLogger(s.logger))
	took := time.Since(start)
	if err != nil {
		s.observe(graph.Stats{}, took, err)
		s.logger.Error("rebuild: failed", slog.String("error", err.Error()), slog.Duration("took", took))
		return nil, fmt.Errorf("siteservice: rebuild: %w", err)
	}

	if s.idx != nil {
		synced, err := s.idx.Sync(g.Searchable())
		if err != nil {
			// Search stays on the previous contents; the graph itself is sound.
			s.logger.Error("rebuild: search index sync failed", slog.String("error", err.Error()))
		} else {
			s.logger.Debug("rebuild: search index synced",
				slog.Int("upserted", synced.Upserted),
				slog.Int("removed", synced.Removed),
				slog.Int("unchanged", synced.Unchanged))
		}
	}

	prev := s.current.Swap(g)
	if s.cache != nil {
		s.cache.Purge()
	}
	s.observe(g.Stats(), took, nil)

	changed := prev == nil || prev.Version() != g.Version()
	s.logger.Info("rebuild: published",
		slog.String("version", g.Version()),
		slog.Int("documents", g.Len()),
		slog.Bool("changed", changed),
		slog.Duration("took", took))
	if s.onRebuild != nil && changed {
		s.onRebuild(g)
	}
	return g, nil
}

func (s *Service) observe(stats graph.Stats, took time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.ObserveBuild(stats, took, err)
	}
}

// Ready reports whether a graph has been published.
func (s *Service) Ready() bool { return s.current.Load() != nil }

// Graph returns the published graph, or apperr.ErrNotReady before the first build.
func (s *Service) Graph() (*graph.Graph, error) {
	g := s.current.Load()
	if g == nil {
		return nil, apperr.ErrNotReady
	}
	return g, nil
}

// Documents returns every document of the published graph.
func (s *Service) Documents(_ context.Context) ([]graph.Document, error) {
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	return g.Documents(), nil
}

// Document returns one document with links and backlinks expanded.
func (s *Service) Document(_ context.Context, id string) (*graph.ExpandedDocument, error) {
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	d, ok := g.Expand(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &d, nil
}

// Backlinks returns the documents linking to id.
func (s *Service) Backlinks(ctx context.Context, id string) ([]graph.Document, error) {
	d, err := s.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Backlinks, nil
}

// Neighborhood returns the two-hop neighborhood of focus. An unknown focus
// yields an empty neighborhood, not an error.
func (s *Service) Neighborhood(_ context.Context, focus string) (graph.Neighborhood, error) {
	g, err := s.Graph()
	if err != nil {
		return graph.Neighborhood{}, err
	}
	if s.cache == nil {
		return g.Neighborhood(focus), nil
	}

	key := g.Version() + "\x00" + focus
	if n, ok := s.cache.Get(key); ok {
		s.cacheHit(true)
		return n, nil
	}
	s.cacheHit(false)
	n := g.Neighborhood(focus)
	s.cache.Add(key, n)
	return n, nil
}

func (s *Service) cacheHit(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHit()
	} else {
		s.metrics.CacheMiss()
	}
}

// Search runs a full-text query against the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("siteservice: empty query: %w", apperr.ErrInvalidInput)
	}
	if !s.Ready() {
		return nil, apperr.ErrNotReady
	}
	if s.idx == nil {
		return []index.SearchResult{}, nil
	}
	start := time.Now()
	res, err := s.idx.Search(query, limit)
	if s.metrics != nil {
		s.metrics.ObserveSearch(time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("siteservice: search: %w", err)
	}
	return res, nil
}
