// Package parser splits frontmatter from Markdown content and scans the body for links.
package parser

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// descriptionLen caps the description derived from the body when frontmatter has none.
const descriptionLen = 280

// ErrMissingClosingDelimiter is returned when a document opens a frontmatter
// block but never closes it.
var ErrMissingClosingDelimiter = errors.New("parser: frontmatter closing delimiter is missing")

// Metadata is the page-level information read from frontmatter.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Metadata    Metadata
}

// Parse separates frontmatter from the body. A document without frontmatter is
// returned as-is. Unterminated or invalid YAML frontmatter is an error so the
// caller can fall back to the raw text.
func Parse(data []byte) (*Result, error) {
	fm, body, err := Split(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Metadata:    deriveMetadata(fm, body),
	}, nil
}

// Split separates YAML frontmatter (between leading --- delimiters) from the
// Markdown body. If no frontmatter is found the entire content is body.
func Split(data []byte) (map[string]any, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	// "---" must be the whole opening line.
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		return nil, string(data), nil
	}

	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", ErrMissingClosingDelimiter
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, "", err
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body, nil
}

func deriveMetadata(fm map[string]any, body string) Metadata {
	var md Metadata
	if s, ok := fm["title"].(string); ok {
		md.Title = strings.TrimSpace(s)
	}
	if s, ok := fm["description"].(string); ok && strings.TrimSpace(s) != "" {
		md.Description = strings.TrimSpace(s)
		return md
	}
	md.Description = truncate(body, descriptionLen)
	return md
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
