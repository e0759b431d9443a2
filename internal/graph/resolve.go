package graph

import (
	"net/url"
	"strings"
)

// IsCandidate reports whether href can be an edge of the graph: it carries no
// URL scheme or host, and its path component ends in the Markdown extension
// after a non-empty file name. Fragments ("#section") and queries ("?v=1")
// are ignored for the check.
func IsCandidate(href, ext string) bool {
	if strings.HasPrefix(href, "//") || hasScheme(href) {
		return false
	}
	p := stripFragment(href)
	if !strings.HasSuffix(p, ext) {
		return false
	}
	name := strings.TrimSuffix(p, ext)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name != ""
}

// hasScheme reports whether href is an absolute URL such as "https://x" or
// "mailto:x". An href url.Parse rejects (a stray "%") is a relative path.
func hasScheme(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}

// Resolve canonicalizes a link found in the document identified by source
// into the identifier of the document it points to. href may still carry the
// extension and a fragment; both are removed first.
//
// Rules, in order:
//   - "./x": x relative to the source's directory.
//   - "../x": each leading "../" removes one level from the source's directory;
//     climbing above the corpus root leaves an empty base.
//   - "/x": x as-is, relative to the corpus root.
//   - "x" or "sub/x": appended to the source's directory unchanged.
func Resolve(source, href, ext string) string {
	p := strings.TrimSuffix(stripFragment(href), ext)

	if strings.HasPrefix(p, "/") {
		return joinSegments(nil, strings.TrimLeft(p, "/"))
	}

	src := splitID(source)
	var dir []string
	if len(src) > 0 {
		dir = src[:len(src)-1]
	}

	ups := 0
loop:
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[len("./"):]
		case strings.HasPrefix(p, "../"):
			p = p[len("../"):]
			ups++
		default:
			break loop
		}
	}
	// Climbing above the corpus root leaves an empty base.
	ups = min(ups, len(dir))

	return joinSegments(dir[:len(dir)-ups], p)
}

// joinSegments appends the normalized segments of rel to base.
func joinSegments(base []string, rel string) string {
	out := make([]string, 0, len(base)+strings.Count(rel, "/")+1)
	out = append(out, base...)
	for _, s := range strings.Split(rel, "/") {
		if s == "" {
			continue
		}
		out = append(out, normalizeSegment(s))
	}
	return strings.Join(out, "/")
}

// stripFragment removes a trailing "#fragment" or "?query".
func stripFragment(href string) string {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		return href[:i]
	}
	return href
}
