package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// Chroma highlights code with chroma, emitting inline-styled HTML.
type Chroma struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChroma returns a highlighter for the named chroma style. Unknown style
// names fall back to chroma's default style.
func NewChroma(style string) *Chroma {
	if style == "" {
		style = DefaultHighlightStyle
	}
	return &Chroma{
		style: styles.Get(style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.TabWidth(4),
		),
	}
}

// Highlight writes code as highlighted HTML. A language chroma does not know
// is written as escaped plain text.
func (c *Chroma) Highlight(w io.Writer, language, code string) error {
	lexer := lexers.Get(language)
	if language == "" || lexer == nil {
		return Plain{}.Highlight(w, language, code)
	}
	iter, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return Plain{}.Highlight(w, language, code)
	}
	if err := c.formatter.Format(w, c.style, iter); err != nil {
		return fmt.Errorf("render: highlight %s: %w", language, err)
	}
	return nil
}

// Plain writes code as escaped monospace text with no highlighting.
type Plain struct{}

// Highlight implements Highlighter.
func (Plain) Highlight(w io.Writer, _ string, code string) error {
	var b strings.Builder
	b.WriteString(`<pre class="plain"><code>`)
	b.WriteString(html.EscapeString(code))
	b.WriteString(`</code></pre>`)
	_, err := io.WriteString(w, b.String())
	return err
}
