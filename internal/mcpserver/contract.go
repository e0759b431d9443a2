package mcpserver

// LinkConventions describes how Markdown links become edges of the content
// graph, so LLM consumers can predict identifiers and write linkable documents.
const LinkConventions = `# Content Graph Link Conventions

Every Markdown file in the corpus is one document. Links between documents are
ordinary inline Markdown links whose target ends in ` + "`" + `.md` + "`" + `.

## Identifiers

- A document's identifier is its path relative to the corpus root, with
  forward slashes, no leading slash and no ` + "`" + `.md` + "`" + ` extension.
- Each path segment is URL-encoded: ` + "`" + `guides/My Guide.md` + "`" + ` becomes
  ` + "`" + `guides/My%20Guide` + "`" + `.
- Tools accept identifiers in either encoded or plain form.

## Link forms

| Link in ` + "`" + `a/b/c.md` + "`" + ` | Resolves to |
|---|---|
| ` + "`" + `[x](./d.md)` + "`" + ` | ` + "`" + `a/b/d` + "`" + ` |
| ` + "`" + `[x](d.md)` + "`" + ` | ` + "`" + `a/b/d` + "`" + ` |
| ` + "`" + `[x](sub/d.md)` + "`" + ` | ` + "`" + `a/b/sub/d` + "`" + ` |
| ` + "`" + `[x](../d.md)` + "`" + ` | ` + "`" + `a/d` + "`" + ` |
| ` + "`" + `[x](/x/y.md)` + "`" + ` | ` + "`" + `x/y` + "`" + ` |

## Rules

1. Only links ending in ` + "`" + `.md` + "`" + ` (before any ` + "`" + `#fragment` + "`" + ` or ` + "`" + `?query` + "`" + `) are edges.
2. ` + "`" + `http://` + "`" + ` and ` + "`" + `https://` + "`" + ` links are never edges.
3. Climbing above the corpus root with ` + "`" + `../` + "`" + ` stops at the root.
4. A link to a document that does not exist is kept in ` + "`" + `links` + "`" + ` but creates
   no backlink and never appears in a neighborhood.
5. A document never links to itself; repeated links to one target count once.
6. YAML frontmatter is optional; ` + "`" + `title` + "`" + ` and ` + "`" + `description` + "`" + ` are read
   from it when present.
`
