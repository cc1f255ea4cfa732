package markdown

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultDiagramKeyword is the fence language routed to diagram rendering.
const DefaultDiagramKeyword = "mermaid"

// Provisional heights, in layout units, used to seed the anchor index before
// the renderer reports real positions.
const (
	estParagraph  = 24
	estBlank      = 12
	estBlockquote = 40
	estRule       = 33
	estListItem   = 24
	estTableRow   = 37
	estCodeChrome = 65
	estCodeLine   = 18
	estDiagram    = 220
)

var estHeading = [...]float64{1: 80, 2: 56, 3: 44}

var tableDelimiterRe = regexp.MustCompile(`^:?-+:?$`)

// SourceDocument is the input to a build: a file path and its text.
type SourceDocument struct {
	Path string
	Text string
}

// Document is the result of one build. Nodes are in source order. Anchors is
// seeded with estimated offsets and refined by the renderer. BuildID
// identifies this build; a rebuild of the same path gets a new ID.
type Document struct {
	Path    string
	BuildID string
	Nodes   []Block
	Anchors *AnchorIndex
}

// OutlineEntry is one heading in a document outline.
type OutlineEntry struct {
	Level    int
	Text     string
	AnchorID string
}

// Outline lists every heading in order, including those whose anchor ID
// collides with an earlier heading.
func (d *Document) Outline() []OutlineEntry {
	var out []OutlineEntry
	for _, n := range d.Nodes {
		if h, ok := n.(Heading); ok {
			out = append(out, OutlineEntry{
				Level:    h.Level,
				Text:     strings.TrimSpace(PlainText(h.Inline)),
				AnchorID: h.AnchorID,
			})
		}
	}
	return out
}

// Title returns the text of the first level 1 heading, or "".
func (d *Document) Title() string {
	for _, n := range d.Nodes {
		if h, ok := n.(Heading); ok && h.Level == 1 {
			return strings.TrimSpace(PlainText(h.Inline))
		}
	}
	return ""
}

// Builder turns source text into a Document.
type Builder struct {
	diagramKeyword string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDiagramKeyword sets the fence language that produces DiagramBlock.
// The match is exact and case-sensitive.
func WithDiagramKeyword(keyword string) BuilderOption {
	return func(b *Builder) {
		b.diagramKeyword = keyword
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{diagramKeyword: DefaultDiagramKeyword}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build parses rawText with the default options.
func Build(rawText, filePath string) *Document {
	return NewBuilder().Build(SourceDocument{Path: filePath, Text: rawText})
}

// Build parses src. It never fails.
func (b *Builder) Build(src SourceDocument) *Document {
	st := &buildState{
		builder: b,
		doc: &Document{
			Path:    src.Path,
			BuildID: uuid.NewString(),
			Anchors: NewAnchorIndex(),
		},
	}

	for _, line := range splitLines(src.Text) {
		st.line(line)
	}
	if st.fence.Open {
		st.closeFence(st.fence.Language)
	}
	return st.doc
}

// splitLines normalises line endings to "\n" and splits. A trailing newline
// does not yield a final empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type buildState struct {
	builder *Builder
	doc     *Document
	fence   FenceState
	code    strings.Builder
	offset  float64

	// table run bookkeeping
	inTable        bool
	headerOpen     bool
	delimiterTaken bool
}

func (st *buildState) emit(n Block, height float64) {
	if _, ok := n.(TableRow); !ok {
		st.inTable = false
	}
	st.doc.Nodes = append(st.doc.Nodes, n)
	st.offset += height
}

func (st *buildState) line(raw string) {
	l, next := Classify(raw, st.fence)
	prev := st.fence
	st.fence = next

	switch l.Kind {
	case KindFence:
		if prev.Open {
			st.closeFence(l.Language)
		} else {
			st.code.Reset()
		}
	case KindCodeBlock:
		st.code.WriteString(l.Text)
		st.code.WriteByte('\n')
	case KindHeading:
		inline := ParseInline(l.Text)
		id := AnchorID(PlainText(inline))
		st.doc.Anchors.Set(id, st.offset)
		st.emit(Heading{Level: l.Level, AnchorID: id, Inline: inline}, estHeading[l.Level])
	case KindBlockquote:
		st.emit(Blockquote{Inline: ParseInline(l.Text)}, estBlockquote)
	case KindHorizontalRule:
		st.emit(HorizontalRule{}, estRule)
	case KindListItem:
		st.emit(ListItem{
			Ordered: l.Number != "",
			Ordinal: l.Ordinal,
			Number:  l.Number,
			Inline:  ParseInline(l.Text),
		}, estListItem)
	case KindBlank:
		st.emit(Blank{}, estBlank)
	default:
		if cells, ok := tableCells(l.Text); ok {
			st.tableRow(cells)
			return
		}
		st.emit(Paragraph{Inline: ParseInline(l.Text)}, estParagraph)
	}
}

func (st *buildState) closeFence(language string) {
	text := st.code.String()
	st.code.Reset()
	if language == st.builder.diagramKeyword {
		st.emit(DiagramBlock{Source: text}, estDiagram)
		return
	}
	lines := strings.Count(text, "\n")
	st.emit(CodeBlock{Language: language, Text: text}, estCodeChrome+float64(lines)*estCodeLine)
}

// tableRow emits a pipe row. The first row of a run is the header; a
// delimiter row directly after it is folded into the header node.
func (st *buildState) tableRow(cells []string) {
	if st.inTable && st.headerOpen && !st.delimiterTaken && isDelimiterRow(cells) {
		st.delimiterTaken = true
		return
	}
	header := !st.inTable
	row := TableRow{Cells: make([]TableCell, len(cells))}
	for i, c := range cells {
		row.Cells[i] = TableCell{Inline: ParseInline(c), IsHeader: header}
	}
	st.emit(row, estTableRow)
	st.inTable = true
	st.headerOpen = header
	if header {
		st.delimiterTaken = false
	}
}

// tableCells splits a paragraph line that starts with '|' into trimmed
// cells.
func tableCells(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || len(trimmed) < 2 {
		return nil, false
	}
	body := strings.TrimPrefix(trimmed, "|")
	body = strings.TrimSuffix(body, "|")
	parts := strings.Split(body, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, true
}

func isDelimiterRow(cells []string) bool {
	for _, c := range cells {
		if !tableDelimiterRe.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}
