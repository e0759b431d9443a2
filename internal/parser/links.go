package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Link is one Markdown link construct: its display text and raw destination.
type Link struct {
	Text string
	Href string
}

// ExtractLinks returns every inline or reference-style link in body, in
// document order and including duplicates. Images and autolinks are not
// links between documents and are skipped. Malformed syntax is simply not
// matched.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if node, ok := n.(*gmast.Link); ok {
			links = append(links, Link{
				Text: inlineText(node, body),
				Href: destination(node.Destination),
			})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// destination decodes backslash escapes and character references, which the
// parser leaves in place.
func destination(raw []byte) string {
	d := util.UnescapePunctuations(raw)
	d = util.ResolveNumericReferences(d)
	d = util.ResolveEntityNames(d)
	return string(d)
}

// inlineText concatenates the literal text beneath n.
func inlineText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
