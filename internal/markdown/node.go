// Package markdown turns Markdown source into an ordered sequence of typed
// block and inline nodes together with an index of heading anchors.
//
// The supported syntax is a reduced subset: ATX headings up to level 3,
// fenced code blocks, blockquotes, horizontal rules, single-line list items,
// pipe tables, and the inline forms **strong**, *emphasis*, `code` and
// [label](target). Input never fails to parse; anything unrecognised
// degrades to paragraphs and literal text.
package markdown

import "strings"

// BlockKind identifies the variant of a Block.
type BlockKind int

// Block kinds.
const (
	KindParagraph BlockKind = iota
	KindHeading
	KindCodeBlock
	KindDiagram
	KindBlockquote
	KindHorizontalRule
	KindListItem
	KindTableRow
	KindBlank
	// KindFence is only produced by Classify; the builder folds fence lines
	// into KindCodeBlock or KindDiagram.
	KindFence
)

var kindNames = [...]string{
	KindParagraph:      "paragraph",
	KindHeading:        "heading",
	KindCodeBlock:      "code",
	KindDiagram:        "diagram",
	KindBlockquote:     "blockquote",
	KindHorizontalRule: "hr",
	KindListItem:       "list_item",
	KindTableRow:       "table_row",
	KindBlank:          "blank",
	KindFence:          "fence",
}

func (k BlockKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Block is one structural unit of a document. The concrete types are
// Heading, Paragraph, CodeBlock, DiagramBlock, Blockquote, HorizontalRule,
// ListItem, TableRow and Blank.
type Block interface {
	Kind() BlockKind
}

// Heading is an ATX heading.
type Heading struct {
	Level    int
	AnchorID string
	Inline   []Inline
}

// Paragraph is any line not claimed by another block rule.
type Paragraph struct {
	Inline []Inline
}

// CodeBlock is a fenced region whose language is not the diagram keyword.
// Text holds the fenced lines joined with "\n", including the final newline.
type CodeBlock struct {
	Language string
	Text     string
}

// DiagramBlock is a fenced region tagged with the diagram keyword.
type DiagramBlock struct {
	Source string
}

// Blockquote is a single "> " line.
type Blockquote struct {
	Inline []Inline
}

// HorizontalRule is a "---", "___" or "***" line.
type HorizontalRule struct{}

// ListItem is a single ordered or unordered list line. Ordinal and Number
// are only meaningful when Ordered is set; Number keeps the digits exactly
// as written.
type ListItem struct {
	Ordered bool
	Ordinal int
	Number  string
	Inline  []Inline
}

// TableCell is one pipe-delimited cell.
type TableCell struct {
	Inline   []Inline
	IsHeader bool
}

// TableRow is one pipe-delimited line.
type TableRow struct {
	Cells []TableCell
}

// Blank is an empty or whitespace-only line.
type Blank struct{}

func (Heading) Kind() BlockKind        { return KindHeading }
func (Paragraph) Kind() BlockKind      { return KindParagraph }
func (CodeBlock) Kind() BlockKind      { return KindCodeBlock }
func (DiagramBlock) Kind() BlockKind   { return KindDiagram }
func (Blockquote) Kind() BlockKind     { return KindBlockquote }
func (HorizontalRule) Kind() BlockKind { return KindHorizontalRule }
func (ListItem) Kind() BlockKind       { return KindListItem }
func (TableRow) Kind() BlockKind       { return KindTableRow }
func (Blank) Kind() BlockKind          { return KindBlank }

// Inline is a unit of formatted text inside a block. The concrete types are
// Text, Strong, Emphasis, Code and Link.
type Inline interface {
	inline()
}

// Text is literal text.
type Text struct {
	Value string
}

// Strong is **...**.
type Strong struct {
	Children []Inline
}

// Emphasis is *...*.
type Emphasis struct {
	Children []Inline
}

// Code is `...`; Value is verbatim.
type Code struct {
	Value string
}

// Link is [label](target). Target is the raw text between the parentheses.
type Link struct {
	Target string
	Label  []Inline
}

func (Text) inline()     {}
func (Strong) inline()   {}
func (Emphasis) inline() {}
func (Code) inline()     {}
func (Link) inline()     {}

// PlainText concatenates the text content of nodes, dropping all markup.
func PlainText(nodes []Inline) string {
	var b strings.Builder
	writePlain(&b, nodes)
	return b.String()
}

func writePlain(b *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Text:
			b.WriteString(v.Value)
		case Code:
			b.WriteString(v.Value)
		case Strong:
			writePlain(b, v.Children)
		case Emphasis:
			writePlain(b, v.Children)
		case Link:
			writePlain(b, v.Label)
		}
	}
}

// Source serialises nodes back to Markdown. For any line,
// Source(ParseInline(line)) == line.
func Source(nodes []Inline) string {
	var b strings.Builder
	writeSource(&b, nodes)
	return b.String()
}

func writeSource(b *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Text:
			b.WriteString(v.Value)
		case Code:
			b.WriteByte('`')
			b.WriteString(v.Value)
			b.WriteByte('`')
		case Strong:
			b.WriteString("**")
			writeSource(b, v.Children)
			b.WriteString("**")
		case Emphasis:
			b.WriteByte('*')
			writeSource(b, v.Children)
			b.WriteByte('*')
		case Link:
			b.WriteByte('[')
			writeSource(b, v.Label)
			b.WriteString("](")
			b.WriteString(v.Target)
			b.WriteByte(')')
		}
	}
}

// Links returns every Link in nodes, depth first, in source order.
func Links(nodes []Inline) []Link {
	var out []Link
	var walk func([]Inline)
	walk = func(ns []Inline) {
		for _, n := range ns {
			switch v := n.(type) {
			case Link:
				out = append(out, v)
				walk(v.Label)
			case Strong:
				walk(v.Children)
			case Emphasis:
				walk(v.Children)
			}
		}
	}
	walk(nodes)
	return out
}

// BlockInline returns the inline content carried by b, flattened across
// table cells. Blocks without inline content return nil.
func BlockInline(b Block) []Inline {
	switch v := b.(type) {
	case Heading:
		return v.Inline
	case Paragraph:
		return v.Inline
	case Blockquote:
		return v.Inline
	case ListItem:
		return v.Inline
	case TableRow:
		var out []Inline
		for _, c := range v.Cells {
			out = append(out, c.Inline...)
		}
		return out
	}
	return nil
}
