package graph

import (
	"net/url"
	"strings"
)

// Identifier derives the canonical document identifier from a corpus-relative
// file path: separators normalized to "/", the leading slash dropped, each
// segment URL-encoded and the Markdown extension removed from the last one.
func Identifier(relPath, ext string) string {
	p := strings.ReplaceAll(relPath, `\`, "/")
	p = strings.TrimLeft(p, "/")
	p = strings.TrimSuffix(p, ext)

	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" {
			continue
		}
		out = append(out, encodeSegment(s))
	}
	return strings.Join(out, "/")
}

// CanonicalID brings an identifier supplied by a client, encoded or not, to
// its canonical form, so "a/My Note" and "a/My%20Note" name the same document.
func CanonicalID(id string) string {
	segs := strings.Split(strings.Trim(id, "/"), "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" {
			continue
		}
		out = append(out, normalizeSegment(s))
	}
	return strings.Join(out, "/")
}

// Title is the human-readable last path segment of a file, without extension.
func Title(relPath, ext string) string {
	p := strings.ReplaceAll(relPath, `\`, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ext)
}

// Label is the display form of an identifier: its last segment, percent-decoded.
func Label(id string) string {
	last := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		last = id[i+1:]
	}
	if dec, err := url.PathUnescape(last); err == nil {
		return dec
	}
	return last
}

func encodeSegment(s string) string {
	return url.PathEscape(s)
}

// normalizeSegment brings an href segment to identifier form, so that
// "My%20Note" and "My Note" both yield "My%20Note".
func normalizeSegment(s string) string {
	if dec, err := url.PathUnescape(s); err == nil {
		s = dec
	}
	return encodeSegment(s)
}

// splitID splits an identifier into segments; the empty identifier has none.
func splitID(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, "/")
}
