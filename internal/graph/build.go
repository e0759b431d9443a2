package graph

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/starford/markgraph/internal/checksum"
	"github.com/starford/markgraph/internal/parser"
	"github.com/starford/markgraph/internal/storage"
)

// BuildOption configures Build.
type BuildOption func(*builder)

// WithWorkers bounds the number of files read in parallel.
func WithWorkers(n int) BuildOption {
	return func(b *builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(l *slog.Logger) BuildOption {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

type builder struct {
	src     storage.Source
	ext     string
	workers int
	logger  *slog.Logger
}

// ingested is the result of the per-file pass.
type ingested struct {
	doc      *Document
	degraded bool
}

// Build scans the corpus and returns its graph. It runs in two phases: every
// file is read and parsed (in parallel), and only once all link lists are
// final are backlinks populated. A file that cannot be read or parsed still
// yields a document; failing to list the corpus is an error and no graph is
// returned.
func Build(ctx context.Context, src storage.Source, opts ...BuildOption) (*Graph, error) {
	b := &builder{
		src:     src,
		ext:     src.Extension(),
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	metas, err := src.List()
	if err != nil {
		return nil, fmt.Errorf("graph: list corpus: %w", err)
	}

	results := make([]ingested, len(metas))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, m := range metas {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = b.ingest(m.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("graph: ingest: %w", err)
	}

	out := b.link(results)
	b.logger.Info("build: complete",
		slog.Int("documents", out.stats.Documents),
		slog.Int("links", out.stats.Links),
		slog.Int("dangling", out.stats.Dangling),
		slog.Int("degraded", out.stats.Degraded),
		slog.Int("duplicates", out.stats.Duplicates))
	return out, nil
}

// ingest reads and parses one file. It never fails: problems are logged and
// the document keeps whatever content could be recovered and no links.
func (b *builder) ingest(path string) ingested {
	doc := &Document{
		ID:        Identifier(path, b.ext),
		Title:     Title(path, b.ext),
		Path:      path,
		Links:     []string{},
		Backlinks: []string{},
	}

	data, err := b.src.Read(path)
	if err != nil {
		b.logger.Warn("build: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return ingested{doc: doc, degraded: true}
	}

	res, err := parser.Parse(data)
	if err != nil {
		b.logger.Warn("build: frontmatter parse failed", slog.String("path", path), slog.String("error", err.Error()))
		doc.Content = string(data)
		return ingested{doc: doc, degraded: true}
	}

	doc.Content = res.Body
	doc.Metadata = res.Metadata
	doc.Links = b.resolveLinks(doc.ID, parser.ExtractLinks([]byte(res.Body)))
	b.logger.Debug("build: ingested", slog.String("path", path), slog.String("id", doc.ID), slog.Int("links", len(doc.Links)))
	return ingested{doc: doc}
}

// resolveLinks turns extracted links into target identifiers, keeping the
// first occurrence of each target and dropping self-references.
func (b *builder) resolveLinks(id string, links []parser.Link) []string {
	out := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if !IsCandidate(l.Href, b.ext) {
			continue
		}
		target := Resolve(id, l.Href, b.ext)
		if target == "" || target == id {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// link registers documents (first identifier wins) and inverts the link
// relation into backlinks.
func (b *builder) link(results []ingested) *Graph {
	g := &Graph{
		docs: make([]*Document, 0, len(results)),
		byID: make(map[string]*Document, len(results)),
	}
	for _, r := range results {
		if r.degraded {
			g.stats.Degraded++
		}
		if _, dup := g.byID[r.doc.ID]; dup {
			b.logger.Warn("build: duplicate identifier, keeping first",
				slog.String("id", r.doc.ID), slog.String("path", r.doc.Path))
			g.stats.Duplicates++
			continue
		}
		g.byID[r.doc.ID] = r.doc
		g.docs = append(g.docs, r.doc)
	}

	for _, src := range g.docs {
		g.stats.Links += len(src.Links)
		for _, t := range src.Links {
			target, ok := g.byID[t]
			if !ok {
				g.stats.Dangling++
				continue
			}
			if !slices.Contains(target.Backlinks, src.ID) {
				target.Backlinks = append(target.Backlinks, src.ID)
				g.stats.Backlinks++
			}
		}
	}

	g.stats.Documents = len(g.docs)
	g.version = digest(g.docs)
	return g
}

func digest(docs []*Document) string {
	var buf bytes.Buffer
	for _, d := range docs {
		buf.WriteString(d.ID)
		buf.WriteByte(0)
		buf.WriteString(d.Content)
		buf.WriteByte(0)
		for _, l := range d.Links {
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
		buf.WriteByte(0)
	}
	return checksum.Sum(buf.Bytes())
}
