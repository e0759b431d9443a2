package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/markgraph/internal/models"
)

// memSource is an in-memory storage.Source.
type memSource struct {
	files   map[string]string
	broken  map[string]bool
	listErr error
}

func (m *memSource) List() ([]models.FileMeta, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]models.FileMeta, len(paths))
	for i, p := range paths {
		out[i] = models.FileMeta{Path: p, Size: int64(len(m.files[p]))}
	}
	return out, nil
}

func (m *memSource) Read(path string) ([]byte, error) {
	if m.broken[path] {
		return nil, errors.New("permission denied")
	}
	return []byte(m.files[path]), nil
}

func (m *memSource) Extension() string { return ".md" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func build(t *testing.T, files map[string]string, opts ...BuildOption) *Graph {
	t.Helper()
	opts = append([]BuildOption{WithLogger(quietLogger())}, opts...)
	g, err := Build(context.Background(), &memSource{files: files}, opts...)
	require.NoError(t, err)
	return g
}

func mustGet(t *testing.T, g *Graph, id string) Document {
	t.Helper()
	d, ok := g.Get(id)
	require.True(t, ok, "document %q missing", id)
	return d
}

func TestBuild_ThreeDocumentChain(t *testing.T) {
	g := build(t, map[string]string{
		"x.md": "to [y](y.md)",
		"y.md": "to [z](./z.md)",
		"z.md": "no links",
	})

	require.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"y"}, mustGet(t, g, "x").Links)
	assert.Equal(t, []string{}, mustGet(t, g, "x").Backlinks)
	assert.Equal(t, []string{"x"}, mustGet(t, g, "y").Backlinks)
	assert.Equal(t, []string{"y"}, mustGet(t, g, "z").Backlinks)
}

func TestBuild_DocumentFields(t *testing.T) {
	g := build(t, map[string]string{
		"guides/My Guide.md": "---\ntitle: The Guide\n---\nBody [up](../index.md)\n",
		"index.md":           "# Home",
	})
	d := mustGet(t, g, "guides/My%20Guide")
	assert.Equal(t, "My Guide", d.Title)
	assert.Equal(t, "guides/My Guide.md", d.Path)
	assert.Equal(t, "Body [up](../index.md)\n", d.Content)
	assert.Equal(t, "The Guide", d.Metadata.Title)
	assert.Equal(t, []string{"index"}, d.Links)
	assert.Equal(t, []string{"guides/My%20Guide"}, mustGet(t, g, "index").Backlinks)
}

func TestBuild_DanglingLinkKeptWithoutBacklink(t *testing.T) {
	g := build(t, map[string]string{
		"a.md": "[gone](missing.md) and [b](b.md)",
		"b.md": "",
	})
	assert.Equal(t, []string{"missing", "b"}, mustGet(t, g, "a").Links)
	assert.False(t, g.Has("missing"))
	assert.Equal(t, []string{"a"}, mustGet(t, g, "b").Backlinks)
	assert.Equal(t, 1, g.Stats().Dangling)

	n := g.Neighborhood("a")
	for _, node := range n.Nodes {
		assert.NotEqual(t, "missing", node.ID)
	}
}

func TestBuild_SelfLinksExcluded(t *testing.T) {
	g := build(t, map[string]string{
		"dir/a.md": "[me](a.md) [me again](./a.md) [abs](/dir/a.md#top) [up](../dir/a.md)",
	})
	d := mustGet(t, g, "dir/a")
	assert.Empty(t, d.Links)
	assert.Empty(t, d.Backlinks)
}

func TestBuild_LinksDeduplicatedInOrder(t *testing.T) {
	g := build(t, map[string]string{
		"a.md": "[c](c.md) [b](b.md) [c again](./c.md#x) [ext](https://example.com/c.md) [txt](c.txt)",
		"b.md": "",
		"c.md": "",
	})
	assert.Equal(t, []string{"c", "b"}, mustGet(t, g, "a").Links)
	assert.Equal(t, []string{"a"}, mustGet(t, g, "c").Backlinks)
}

func TestBuild_EscapedDestinationsGainBacklinks(t *testing.T) {
	g := build(t, map[string]string{
		"src.md": `[a](a\_b.md) [b](x&amp;y.md)`,
		"a_b.md": "",
		"x&y.md": "",
	})
	assert.Equal(t, []string{"a_b", "x&y"}, mustGet(t, g, "src").Links)
	assert.Equal(t, []string{"src"}, mustGet(t, g, "a_b").Backlinks)
	assert.Equal(t, []string{"src"}, mustGet(t, g, "x&y").Backlinks)
	assert.Equal(t, 0, g.Stats().Dangling)
}

func TestBuild_NonDocumentHrefsIgnored(t *testing.T) {
	g := build(t, map[string]string{
		"a/b/c.md": "[mail](mailto:x.md) [ftp](ftp://h/x.md) [dir](./.md)",
		"a/b.md":   "",
	})
	assert.Empty(t, mustGet(t, g, "a/b/c").Links)
	assert.Empty(t, mustGet(t, g, "a/b").Backlinks)
}

func TestBuild_FrontmatterFailureUsesRawContent(t *testing.T) {
	raw := "---\ntitle: [unclosed\n---\nsee [b](b.md)\n"
	g := build(t, map[string]string{
		"a.md": raw,
		"b.md": "",
	})
	a := mustGet(t, g, "a")
	assert.Equal(t, raw, a.Content)
	assert.Empty(t, a.Links)
	assert.Empty(t, mustGet(t, g, "b").Backlinks)
	assert.Equal(t, 1, g.Stats().Degraded)
}

func TestBuild_ReadFailureDegradesOneDocument(t *testing.T) {
	src := &memSource{
		files: map[string]string{
			"a.md": "[b](b.md)",
			"b.md": "[a](a.md)",
		},
		broken: map[string]bool{"b.md": true},
	}
	g, err := Build(context.Background(), src, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	b := mustGet(t, g, "b")
	assert.Empty(t, b.Content)
	assert.Empty(t, b.Links)
	assert.Equal(t, []string{"a"}, b.Backlinks)
	assert.Empty(t, mustGet(t, g, "a").Backlinks)
	assert.Equal(t, 1, g.Stats().Degraded)
}

func TestBuild_ListFailureIsFatal(t *testing.T) {
	g, err := Build(context.Background(), &memSource{listErr: errors.New("no such directory")}, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Nil(t, g)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, err := Build(ctx, &memSource{files: map[string]string{"a.md": ""}}, WithLogger(quietLogger()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, g)
}

func TestBuild_DuplicateIdentifierFirstWins(t *testing.T) {
	g := build(t, map[string]string{
		"x/y.md": "first",
		`x\y.md`: "second",
	})
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, "first", mustGet(t, g, "x/y").Content)
	assert.Equal(t, 1, g.Stats().Duplicates)
}

func TestBuild_Idempotent(t *testing.T) {
	files := sampleCorpus()
	g1 := build(t, files)
	g2 := build(t, files)
	assert.Equal(t, g1.Documents(), g2.Documents())
	assert.Equal(t, g1.Version(), g2.Version())
}

func TestBuild_WorkerCountDoesNotChangeResult(t *testing.T) {
	files := sampleCorpus()
	serial := build(t, files, WithWorkers(1))
	parallel := build(t, files, WithWorkers(16))
	assert.Equal(t, serial.Documents(), parallel.Documents())
}

func TestBuild_VersionChangesWithContent(t *testing.T) {
	g1 := build(t, map[string]string{"a.md": "one"})
	g2 := build(t, map[string]string{"a.md": "two"})
	assert.NotEqual(t, g1.Version(), g2.Version())
}

func TestBuild_SampleCorpusLinks(t *testing.T) {
	g := build(t, sampleCorpus())
	assert.Equal(t, []string{"guide/intro", "reference/api"}, mustGet(t, g, "index").Links)
	assert.Equal(t, []string{"guide/setup", "index", "guide/advanced/tuning"}, mustGet(t, g, "guide/intro").Links)
	assert.Equal(t, []string{"reference/api", "index"}, mustGet(t, g, "guide/advanced/tuning").Links)
	assert.Equal(t, []string{"guide/setup"}, mustGet(t, g, "reference/api").Links)
	assert.Empty(t, mustGet(t, g, "orphan").Backlinks)
}

func TestBuild_InversionInvariant(t *testing.T) {
	g := build(t, sampleCorpus())
	docs := g.Documents()
	require.NotEmpty(t, docs)

	byID := make(map[string]Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	for _, a := range docs {
		assert.NotContains(t, a.Links, a.ID, "self link in %s", a.ID)
		assert.NotContains(t, a.Backlinks, a.ID, "self backlink in %s", a.ID)
		for _, b := range docs {
			linked := slices.Contains(a.Links, b.ID)
			back := slices.Contains(b.Backlinks, a.ID)
			assert.Equal(t, linked, back, "%s -> %s", a.ID, b.ID)
		}
		for _, bl := range a.Backlinks {
			_, ok := byID[bl]
			assert.True(t, ok, "backlink %q of %q is not a document", bl, a.ID)
		}
	}
}

func TestDocumentsAreCopies(t *testing.T) {
	g := build(t, map[string]string{"a.md": "[b](b.md)", "b.md": ""})
	d := mustGet(t, g, "a")
	d.Links[0] = "mutated"
	assert.Equal(t, []string{"b"}, mustGet(t, g, "a").Links)
}

func TestExpand(t *testing.T) {
	g := build(t, map[string]string{
		"a.md": "[b](b.md) [gone](gone.md)",
		"b.md": "[c](c.md)",
		"c.md": "[a](a.md)",
	})
	e, ok := g.Expand("a")
	require.True(t, ok)
	require.Len(t, e.Links, 1)
	assert.Equal(t, "b", e.Links[0].ID)
	assert.Equal(t, []string{"c"}, e.Links[0].Links)
	require.Len(t, e.Backlinks, 1)
	assert.Equal(t, "c", e.Backlinks[0].ID)

	_, ok = g.Expand("nope")
	assert.False(t, ok)
}

func TestSearchable(t *testing.T) {
	g := build(t, map[string]string{"notes/My Note.md": "---\ntitle: t\n---\nhello"})
	assert.Equal(t, []SearchableDocument{{Name: "My Note", Identifier: "notes/My%20Note", Content: "hello"}}, g.Searchable())
}

// sampleCorpus mixes every link form across a few directory levels.
func sampleCorpus() map[string]string {
	return map[string]string{
		"index.md":                 "[guide](guide/intro.md) [ref](/reference/api.md) [ext](https://x.io/a.md)",
		"guide/intro.md":           "[next](./setup.md) [home](../index.md) [deep](advanced/tuning.md)",
		"guide/setup.md":           "[intro](intro.md) [missing](nowhere.md)",
		"guide/advanced/tuning.md": "[api](../../reference/api.md) [root](../../../../index.md) [self](tuning.md)",
		"reference/api.md":         "[setup](/guide/setup.md) [setup again](../guide/setup.md#install)",
		"orphan.md":                "nothing here",
	}
}
