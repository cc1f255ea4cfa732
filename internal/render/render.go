// Package render walks a built document and hands each node to an output
// renderer. Code blocks go to a Highlighter and diagrams to a
// DiagramRenderer; neither can fail the document.
package render

import (
	"fmt"
	"io"

	"github.com/starford/bergen/internal/markdown"
)

// Renderer receives block nodes in document order.
type Renderer interface {
	Heading(markdown.Heading)
	Paragraph(markdown.Paragraph)
	CodeBlock(markdown.CodeBlock)
	Diagram(markdown.DiagramBlock)
	Blockquote(markdown.Blockquote)
	HorizontalRule()
	ListItem(markdown.ListItem)
	TableRow(markdown.TableRow)
	Blank()
}

// Highlighter renders a code block. Unknown languages must still produce
// plain monospace output.
type Highlighter interface {
	Highlight(w io.Writer, language, code string) error
}

// DiagramRenderer turns raw diagram source into markup. done is called
// exactly once, possibly from another goroutine.
type DiagramRenderer interface {
	RenderDiagram(source string, done func(markup string, err error))
}

// Dispatch hands every node of doc to r. A node type Dispatch does not know
// is a programming error and panics.
func Dispatch(doc *markdown.Document, r Renderer) {
	for _, n := range doc.Nodes {
		switch b := n.(type) {
		case markdown.Heading:
			r.Heading(b)
		case markdown.Paragraph:
			r.Paragraph(b)
		case markdown.CodeBlock:
			r.CodeBlock(b)
		case markdown.DiagramBlock:
			r.Diagram(b)
		case markdown.Blockquote:
			r.Blockquote(b)
		case markdown.HorizontalRule:
			r.HorizontalRule()
		case markdown.ListItem:
			r.ListItem(b)
		case markdown.TableRow:
			r.TableRow(b)
		case markdown.Blank:
			r.Blank()
		default:
			panic(fmt.Sprintf("render: unknown block %T", n))
		}
	}
}

// LanguageLabel is the label shown above a code block.
func LanguageLabel(language string) string {
	if language == "" {
		return "text"
	}
	return language
}
