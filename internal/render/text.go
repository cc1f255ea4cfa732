package render

import (
	"strings"

	"github.com/starford/bergen/internal/markdown"
)

// DefaultTextWidth is the wrap column of the text renderer.
const DefaultTextWidth = 80

// Text renders a document as wrapped plain text. It measures layout in
// lines: every heading's anchor is set to the zero-based line it starts on.
type Text struct {
	width   int
	anchors *markdown.AnchorIndex
	lines   []string
}

// NewText creates a text renderer that reports heading positions to anchors.
// anchors may be nil. A width below 1 uses DefaultTextWidth.
func NewText(width int, anchors *markdown.AnchorIndex) *Text {
	if width < 1 {
		width = DefaultTextWidth
	}
	return &Text{width: width, anchors: anchors}
}

// RenderText renders doc and returns the line each heading anchor starts on.
// doc.Anchors is left alone: line numbers are not the units of the surface
// that displays the document.
func RenderText(doc *markdown.Document, width int) (string, map[string]float64) {
	anchors := markdown.NewAnchorIndex()
	t := NewText(width, anchors)
	Dispatch(doc, t)
	return t.String(), anchors.Snapshot()
}

// String returns the rendered text, one trailing newline per line.
func (t *Text) String() string {
	if len(t.lines) == 0 {
		return ""
	}
	return strings.Join(t.lines, "\n") + "\n"
}

// Lines returns the number of lines written so far.
func (t *Text) Lines() int { return len(t.lines) }

func (t *Text) add(lines ...string) {
	t.lines = append(t.lines, lines...)
}

// Heading implements Renderer.
func (t *Text) Heading(h markdown.Heading) {
	if t.anchors != nil {
		t.anchors.Set(h.AnchorID, float64(len(t.lines)))
	}
	text := inlineText(h.Inline)
	switch h.Level {
	case 1:
		t.add(text, strings.Repeat("=", displayWidth(text)))
	case 2:
		t.add(text, strings.Repeat("-", displayWidth(text)))
	default:
		t.add(strings.Repeat("#", h.Level) + " " + text)
	}
}

// Paragraph implements Renderer.
func (t *Text) Paragraph(p markdown.Paragraph) {
	t.add(wrap(inlineText(p.Inline), t.width, "", "")...)
}

// CodeBlock implements Renderer.
func (t *Text) CodeBlock(c markdown.CodeBlock) {
	lines := []string{"[" + LanguageLabel(c.Language) + "]"}
	for _, l := range strings.Split(strings.TrimSuffix(c.Text, "\n"), "\n") {
		lines = append(lines, "    "+l)
	}
	t.add(lines...)
}

// Diagram implements Renderer.
func (t *Text) Diagram(d markdown.DiagramBlock) {
	lines := []string{"[diagram]"}
	for _, l := range strings.Split(strings.TrimSuffix(d.Source, "\n"), "\n") {
		lines = append(lines, "    "+l)
	}
	t.add(lines...)
}

// Blockquote implements Renderer.
func (t *Text) Blockquote(q markdown.Blockquote) {
	t.add(wrap(inlineText(q.Inline), t.width, "> ", "> ")...)
}

// HorizontalRule implements Renderer.
func (t *Text) HorizontalRule() {
	t.add(strings.Repeat("-", min(t.width, 40)))
}

// ListItem implements Renderer.
func (t *Text) ListItem(li markdown.ListItem) {
	marker := "- "
	if li.Ordered {
		marker = li.Number + ". "
	}
	t.add(wrap(inlineText(li.Inline), t.width, marker, strings.Repeat(" ", len(marker)))...)
}

// TableRow implements Renderer. A header row is underlined.
func (t *Text) TableRow(row markdown.TableRow) {
	cells := make([]string, len(row.Cells))
	header := false
	for i, c := range row.Cells {
		cells[i] = inlineText(c.Inline)
		header = header || c.IsHeader
	}
	line := "| " + strings.Join(cells, " | ") + " |"
	lines := []string{line}
	if header {
		lines = append(lines, strings.Repeat("-", displayWidth(line)))
	}
	t.add(lines...)
}

// Blank implements Renderer.
func (t *Text) Blank() {
	t.add("")
}

// inlineText flattens inline nodes, writing links as "label <target>" unless
// the label already is the target.
func inlineText(nodes []markdown.Inline) string {
	var b strings.Builder
	writeInlineText(&b, nodes)
	return b.String()
}

func writeInlineText(b *strings.Builder, nodes []markdown.Inline) {
	for _, n := range nodes {
		switch v := n.(type) {
		case markdown.Text:
			b.WriteString(v.Value)
		case markdown.Strong:
			writeInlineText(b, v.Children)
		case markdown.Emphasis:
			writeInlineText(b, v.Children)
		case markdown.Code:
			b.WriteString(v.Value)
		case markdown.Link:
			label := markdown.PlainText(v.Label)
			b.WriteString(label)
			if label != v.Target {
				b.WriteString(" <" + v.Target + ">")
			}
		}
	}
}

// wrap breaks s on spaces so that no line exceeds width runes unless a single
// word is longer. first prefixes the first line and rest the others.
func wrap(s string, width int, first, rest string) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{strings.TrimRight(first, " ")}
	}
	var (
		out    []string
		line   strings.Builder
		prefix = first
	)
	line.WriteString(prefix)
	n := displayWidth(prefix)
	fresh := true
	for _, w := range words {
		ww := displayWidth(w)
		if !fresh && n+1+ww > width {
			out = append(out, line.String())
			line.Reset()
			prefix = rest
			line.WriteString(prefix)
			n = displayWidth(prefix)
			fresh = true
		}
		if !fresh {
			line.WriteByte(' ')
			n++
		}
		line.WriteString(w)
		n += ww
		fresh = false
	}
	return append(out, line.String())
}

func displayWidth(s string) int {
	return len([]rune(s))
}
