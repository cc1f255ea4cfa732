package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/bergen/internal/markdown"
)

// HTMLOption configures an HTML renderer.
type HTMLOption func(*HTML)

// WithHighlighter sets the code highlighter.
func WithHighlighter(h Highlighter) HTMLOption {
	return func(r *HTML) {
		r.highlighter = h
	}
}

// WithDiagramRenderer sets the diagram renderer.
func WithDiagramRenderer(d DiagramRenderer) HTMLOption {
	return func(r *HTML) {
		r.diagrams = d
	}
}

// WithHTMLLogger sets the logger used for diagram and highlight failures.
func WithHTMLLogger(l *slog.Logger) HTMLOption {
	return func(r *HTML) {
		r.logger = l
	}
}

// HTML renders a document to an HTML fragment. Diagrams are written as
// loading placeholders and filled in by Finish once their renderer reports
// back.
type HTML struct {
	highlighter Highlighter
	diagrams    DiagramRenderer
	logger      *slog.Logger

	buf     bytes.Buffer
	parts   []htmlPart
	inTable bool
}

// htmlPart is either literal markup or a diagram resolved at Finish.
type htmlPart struct {
	text    string
	diagram *diagramSlot
}

type diagramSlot struct {
	source string
	ready  chan struct{}

	mu     sync.Mutex
	done   bool
	markup string
	err    error
}

func (s *diagramSlot) complete(markup string, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done, s.markup, s.err = true, markup, err
	close(s.ready)
	return true
}

func (s *diagramSlot) html() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.done:
		return `<div class="diagram" data-state="loading"><span class="diagram-loading">Loading diagram…</span>` +
			`<pre class="diagram-source">` + html.EscapeString(s.source) + "</pre></div>\n"
	case s.err != nil:
		return `<div class="diagram" data-state="error"><pre class="diagram-source">` +
			html.EscapeString(s.source) + "</pre></div>\n"
	default:
		return `<div class="diagram" data-state="ready">` + s.markup + "</div>\n"
	}
}

// NewHTML creates an HTML renderer. Without options it uses Plain and
// Mermaid.
func NewHTML(opts ...HTMLOption) *HTML {
	r := &HTML{
		highlighter: Plain{},
		diagrams:    Mermaid{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderHTML renders doc inside an article element carrying its path and
// build ID, waiting for diagrams until ctx is done.
func RenderHTML(ctx context.Context, doc *markdown.Document, opts ...HTMLOption) string {
	r := NewHTML(opts...)
	fmt.Fprintf(&r.buf, `<article class="document" data-path="%s" data-build-id="%s">`+"\n",
		html.EscapeString(doc.Path), html.EscapeString(doc.BuildID))
	Dispatch(doc, r)
	r.closeTable()
	r.buf.WriteString("</article>\n")
	return r.Finish(ctx)
}

// Finish waits for outstanding diagrams until ctx is done and returns the
// markup. Diagrams still pending keep their loading placeholder.
func (r *HTML) Finish(ctx context.Context) string {
	r.closeTable()
	r.flush()

wait:
	for _, p := range r.parts {
		if p.diagram == nil {
			continue
		}
		select {
		case <-p.diagram.ready:
		case <-ctx.Done():
			break wait
		}
	}

	var out strings.Builder
	for _, p := range r.parts {
		if p.diagram != nil {
			out.WriteString(p.diagram.html())
			continue
		}
		out.WriteString(p.text)
	}
	r.parts = nil
	return out.String()
}

func (r *HTML) flush() {
	if r.buf.Len() > 0 {
		r.parts = append(r.parts, htmlPart{text: r.buf.String()})
		r.buf.Reset()
	}
}

func (r *HTML) closeTable() {
	if r.inTable {
		r.buf.WriteString("</table>\n")
		r.inTable = false
	}
}

// Heading implements Renderer.
func (r *HTML) Heading(h markdown.Heading) {
	r.closeTable()
	fmt.Fprintf(&r.buf, `<h%d id="%s">`, h.Level, html.EscapeString(h.AnchorID))
	writeInline(&r.buf, h.Inline)
	fmt.Fprintf(&r.buf, "</h%d>\n", h.Level)
}

// Paragraph implements Renderer.
func (r *HTML) Paragraph(p markdown.Paragraph) {
	r.closeTable()
	r.buf.WriteString("<p>")
	writeInline(&r.buf, p.Inline)
	r.buf.WriteString("</p>\n")
}

// CodeBlock implements Renderer.
func (r *HTML) CodeBlock(c markdown.CodeBlock) {
	r.closeTable()
	fmt.Fprintf(&r.buf, `<div class="code-block"><div class="code-language">%s</div>`,
		html.EscapeString(LanguageLabel(c.Language)))
	var code bytes.Buffer
	if err := r.highlighter.Highlight(&code, c.Language, c.Text); err != nil {
		r.logger.Warn("render: highlight failed",
			slog.String("language", c.Language),
			slog.String("error", err.Error()))
		code.Reset()
		_ = Plain{}.Highlight(&code, c.Language, c.Text)
	}
	r.buf.Write(code.Bytes())
	r.buf.WriteString("</div>\n")
}

// Diagram implements Renderer.
func (r *HTML) Diagram(d markdown.DiagramBlock) {
	r.closeTable()
	r.flush()

	slot := &diagramSlot{source: d.Source, ready: make(chan struct{})}
	r.parts = append(r.parts, htmlPart{diagram: slot})

	r.diagrams.RenderDiagram(d.Source, func(markup string, err error) {
		if slot.complete(markup, err) && err != nil {
			r.logger.Warn("render: diagram failed", slog.String("error", err.Error()))
		}
	})
}

// Blockquote implements Renderer.
func (r *HTML) Blockquote(q markdown.Blockquote) {
	r.closeTable()
	r.buf.WriteString("<blockquote>")
	writeInline(&r.buf, q.Inline)
	r.buf.WriteString("</blockquote>\n")
}

// HorizontalRule implements Renderer.
func (r *HTML) HorizontalRule() {
	r.closeTable()
	r.buf.WriteString("<hr>\n")
}

// ListItem implements Renderer.
func (r *HTML) ListItem(li markdown.ListItem) {
	r.closeTable()
	if li.Ordered {
		fmt.Fprintf(&r.buf, `<div class="list-item ordered" data-ordinal="%d"><span class="marker">%s.</span> `,
			li.Ordinal, html.EscapeString(li.Number))
	} else {
		r.buf.WriteString(`<div class="list-item"><span class="marker">•</span> `)
	}
	writeInline(&r.buf, li.Inline)
	r.buf.WriteString("</div>\n")
}

// TableRow implements Renderer. Consecutive rows share one table element.
func (r *HTML) TableRow(row markdown.TableRow) {
	if !r.inTable {
		r.buf.WriteString(`<table class="table">` + "\n")
		r.inTable = true
	}
	r.buf.WriteString("<tr>")
	for _, c := range row.Cells {
		tag := "td"
		if c.IsHeader {
			tag = "th"
		}
		r.buf.WriteString("<" + tag + ">")
		writeInline(&r.buf, c.Inline)
		r.buf.WriteString("</" + tag + ">")
	}
	r.buf.WriteString("</tr>\n")
}

// Blank implements Renderer.
func (r *HTML) Blank() {
	r.closeTable()
	r.buf.WriteString(`<div class="blank"></div>` + "\n")
}

func writeInline(b *bytes.Buffer, nodes []markdown.Inline) {
	for _, n := range nodes {
		switch v := n.(type) {
		case markdown.Text:
			b.WriteString(html.EscapeString(v.Value))
		case markdown.Strong:
			b.WriteString("<strong>")
			writeInline(b, v.Children)
			b.WriteString("</strong>")
		case markdown.Emphasis:
			b.WriteString("<em>")
			writeInline(b, v.Children)
			b.WriteString("</em>")
		case markdown.Code:
			b.WriteString("<code>")
			b.WriteString(html.EscapeString(v.Value))
			b.WriteString("</code>")
		case markdown.Link:
			href := html.EscapeString(v.Target)
			fmt.Fprintf(b, `<a href="%s" data-href="%s">`, href, href)
			writeInline(b, v.Label)
			b.WriteString("</a>")
		default:
			panic(fmt.Sprintf("render: unknown inline %T", n))
		}
	}
}
