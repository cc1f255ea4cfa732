// Package meta extracts front matter, title, tags, headings and links from a
// Markdown file for indexing.
package meta

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/bergen/internal/markdown"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds what the index stores about one file.
type Result struct {
	FrontMatter map[string]any
	Body        string
	Title       string
	Tags        []string
	Headings    []markdown.OutlineEntry
	Links       []string
	Doc         *markdown.Document
}

// Parse splits off YAML front matter and builds the body with b. It never
// fails: invalid front matter is treated as body text.
func Parse(path string, data []byte, b *markdown.Builder) *Result {
	fm, body := splitFrontMatter(data)
	doc := b.Build(markdown.SourceDocument{Path: path, Text: body})

	return &Result{
		FrontMatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, doc),
		Tags:        extractTags(doc, fm),
		Headings:    doc.Outline(),
		Links:       extractLinks(doc),
		Doc:         doc,
	}
}

// splitFrontMatter separates YAML front matter between leading "---" lines
// from the body. Without a well-formed block the whole input is body.
func splitFrontMatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	after := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(after), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// extractLinks returns the distinct link targets in document order.
func extractLinks(doc *markdown.Document) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range doc.Nodes {
		for _, l := range markdown.Links(markdown.BlockInline(n)) {
			href := strings.TrimSpace(l.Target)
			if href == "" {
				continue
			}
			if _, ok := seen[href]; ok {
				continue
			}
			seen[href] = struct{}{}
			out = append(out, href)
		}
	}
	return out
}

// extractTags collects front matter tags, then #tags from prose lines.
// Headings and code blocks are not scanned.
func extractTags(doc *markdown.Document, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if raw, ok := fm["tags"]; ok {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case string:
			for _, s := range strings.Split(v, ",") {
				add(s)
			}
		}
	}

	for _, n := range doc.Nodes {
		switch n.(type) {
		case markdown.Paragraph, markdown.ListItem, markdown.Blockquote:
		default:
			continue
		}
		for _, m := range tagRe.FindAllStringSubmatch(markdown.PlainText(markdown.BlockInline(n)), -1) {
			add(m[1])
		}
	}
	return out
}

// deriveTitle prefers the front matter title, then the first level 1
// heading.
func deriveTitle(fm map[string]any, doc *markdown.Document) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	return doc.Title()
}
