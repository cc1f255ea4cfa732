package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/starford/bergen/internal/markdown"
)

func quiet() HTMLOption {
	return WithHTMLLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type recorder struct {
	kinds []string
}

func (r *recorder) Heading(markdown.Heading)       { r.kinds = append(r.kinds, "heading") }
func (r *recorder) Paragraph(markdown.Paragraph)   { r.kinds = append(r.kinds, "paragraph") }
func (r *recorder) CodeBlock(markdown.CodeBlock)   { r.kinds = append(r.kinds, "code") }
func (r *recorder) Diagram(markdown.DiagramBlock)  { r.kinds = append(r.kinds, "diagram") }
func (r *recorder) Blockquote(markdown.Blockquote) { r.kinds = append(r.kinds, "quote") }
func (r *recorder) HorizontalRule()                { r.kinds = append(r.kinds, "rule") }
func (r *recorder) ListItem(markdown.ListItem)     { r.kinds = append(r.kinds, "item") }
func (r *recorder) TableRow(markdown.TableRow)     { r.kinds = append(r.kinds, "row") }
func (r *recorder) Blank()                         { r.kinds = append(r.kinds, "blank") }

func TestDispatchOrder(t *testing.T) {
	src := "# T\npara\n```go\nx\n```\n```mermaid\ngraph TD\n```\n> q\n---\n- a\n| h |\n\n"
	doc := markdown.Build(src, "/d.md")
	r := &recorder{}
	Dispatch(doc, r)
	want := "heading paragraph code diagram quote rule item row blank"
	if got := strings.Join(r.kinds, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

type bogus struct{}

func (bogus) Kind() markdown.BlockKind { return markdown.KindParagraph }

func TestDispatchUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown block")
		}
	}()
	Dispatch(&markdown.Document{Nodes: []markdown.Block{bogus{}}}, &recorder{})
}

func TestHTMLBlocksAndInline(t *testing.T) {
	doc := markdown.Build("# Hello <World>\nSome **bold** and *it* with `x<y` and [go](../a.md#b)\n", "/d.md")
	out := RenderHTML(context.Background(), doc, quiet())

	for _, want := range []string{
		`<h1 id="hello-world">Hello &lt;World&gt;</h1>`,
		`<strong>bold</strong>`,
		`<em>it</em>`,
		`<code>x&lt;y</code>`,
		`<a href="../a.md#b" data-href="../a.md#b">go</a>`,
		`data-build-id="` + doc.BuildID + `"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHTMLCodeLanguageLabel(t *testing.T) {
	doc := markdown.Build("```\na < b\n```\n", "/d.md")
	out := RenderHTML(context.Background(), doc, quiet())
	if !strings.Contains(out, `<div class="code-language">text</div>`) {
		t.Errorf("missing text label:\n%s", out)
	}
	if !strings.Contains(out, "a &lt; b") {
		t.Errorf("code not escaped:\n%s", out)
	}
}

func TestChromaHighlightsKnownLanguage(t *testing.T) {
	var b strings.Builder
	if err := NewChroma("github").Highlight(&b, "go", "package main\n"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "<span") || !strings.Contains(b.String(), "package") {
		t.Errorf("unexpected highlight output: %s", b.String())
	}
}

func TestChromaUnknownLanguageIsPlain(t *testing.T) {
	var b strings.Builder
	if err := NewChroma("no-such-style").Highlight(&b, "no-such-language", "<x>"); err != nil {
		t.Fatal(err)
	}
	if b.String() != `<pre class="plain"><code>&lt;x&gt;</code></pre>` {
		t.Errorf("got %s", b.String())
	}
}

type failingHighlighter struct{}

func (failingHighlighter) Highlight(io.Writer, string, string) error {
	return errors.New("boom")
}

func TestHighlightFailureFallsBackToPlain(t *testing.T) {
	doc := markdown.Build("```go\nx := 1\n```\n", "/d.md")
	out := RenderHTML(context.Background(), doc, quiet(), WithHighlighter(failingHighlighter{}))
	if !strings.Contains(out, `<pre class="plain"><code>x := 1`) {
		t.Errorf("no plain fallback:\n%s", out)
	}
}

func TestHTMLDiagramStates(t *testing.T) {
	doc := markdown.Build("```mermaid\ngraph TD; A-->B\n```\n", "/d.md")

	ready := RenderHTML(context.Background(), doc, quiet())
	if !strings.Contains(ready, `data-state="ready"`) || !strings.Contains(ready, `<pre class="mermaid">graph TD; A--&gt;B`) {
		t.Errorf("ready:\n%s", ready)
	}

	failing := DiagramFunc(func(_ string, done func(string, error)) {
		done("", errors.New("bad diagram"))
	})
	errOut := RenderHTML(context.Background(), doc, quiet(), WithDiagramRenderer(failing))
	if !strings.Contains(errOut, `data-state="error"`) {
		t.Errorf("error:\n%s", errOut)
	}

	never := DiagramFunc(func(string, func(string, error)) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pending := RenderHTML(ctx, doc, quiet(), WithDiagramRenderer(never))
	if !strings.Contains(pending, `data-state="loading"`) || !strings.Contains(pending, "diagram-loading") {
		t.Errorf("loading:\n%s", pending)
	}
}

func TestHTMLDiagramAsyncCompletion(t *testing.T) {
	doc := markdown.Build("before\n```mermaid\nA\n```\nafter\n", "/d.md")
	async := DiagramFunc(func(src string, done func(string, error)) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			done("<svg>"+src+"</svg>", nil)
		}()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := RenderHTML(ctx, doc, quiet(), WithDiagramRenderer(async))

	i, j, k := strings.Index(out, "before"), strings.Index(out, "<svg>A\n</svg>"), strings.Index(out, "after")
	if i < 0 || j < 0 || k < 0 || !(i < j && j < k) {
		t.Errorf("diagram out of order or missing:\n%s", out)
	}
}

func TestHTMLAbandonedDiagramsDoNotLeak(t *testing.T) {
	doc := markdown.Build("```mermaid\nA\n```\n", "/d.md")
	never := DiagramFunc(func(string, func(string, error)) {})

	before := runtime.NumGoroutine()
	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		out := RenderHTML(ctx, doc, quiet(), WithDiagramRenderer(never))
		cancel()
		if !strings.Contains(out, `data-state="loading"`) {
			t.Fatalf("render %d:\n%s", i, out)
		}
	}
	if after := runtime.NumGoroutine(); after-before > 10 {
		t.Errorf("goroutines grew from %d to %d", before, after)
	}
}

func TestHTMLTableGrouping(t *testing.T) {
	doc := markdown.Build("| a | b |\n|---|---|\n| 1 | 2 |\ntext\n", "/d.md")
	out := RenderHTML(context.Background(), doc, quiet())
	if strings.Count(out, "<table") != 1 || strings.Count(out, "</table>") != 1 {
		t.Errorf("tables not grouped:\n%s", out)
	}
	if !strings.Contains(out, "<th>a</th>") || !strings.Contains(out, "<td>2</td>") {
		t.Errorf("cells:\n%s", out)
	}
	if strings.Index(out, "</table>") > strings.Index(out, "<p>text</p>") {
		t.Errorf("table not closed before paragraph:\n%s", out)
	}
}

func TestHTMLOrderedListKeepsNumber(t *testing.T) {
	doc := markdown.Build("10. ten\n2. two\n", "/d.md")
	out := RenderHTML(context.Background(), doc, quiet())
	if !strings.Contains(out, `<span class="marker">10.</span> ten`) || !strings.Contains(out, `<span class="marker">2.</span> two`) {
		t.Errorf("ordinals renumbered:\n%s", out)
	}
}

func TestRenderTextMeasuresHeadings(t *testing.T) {
	doc := markdown.Build("# Title\ntext\n## Sub\n### Deep\n", "/d.md")
	estimate, _ := doc.Anchors.Get("sub")
	out, lines := RenderText(doc, 80)

	want := "Title\n=====\ntext\nSub\n---\n### Deep\n"
	if out != want {
		t.Errorf("text = %q, want %q", out, want)
	}
	for id, line := range map[string]float64{"title": 0, "sub": 3, "deep": 5} {
		got, ok := lines[id]
		if !ok || got != line {
			t.Errorf("anchor %q = %v (%v), want %v", id, got, ok, line)
		}
	}
	if got, _ := doc.Anchors.Get("sub"); got != estimate {
		t.Errorf("document anchor changed to %v, want estimate %v", got, estimate)
	}
}

func TestRenderTextWrapsAndPrefixes(t *testing.T) {
	doc := markdown.Build("- alpha beta gamma\n> one two three\n", "/d.md")
	out, _ := RenderText(doc, 12)
	want := "- alpha beta\n  gamma\n> one two\n> three\n"
	if out != want {
		t.Errorf("text = %q, want %q", out, want)
	}
}

func TestRenderTextCodeAndLinks(t *testing.T) {
	doc := markdown.Build("see [guide](g.md)\n```\nline\n```\n", "/d.md")
	out, _ := RenderText(doc, 80)
	want := "see guide <g.md>\n[text]\n    line\n"
	if out != want {
		t.Errorf("text = %q, want %q", out, want)
	}
}

func TestRenderJSON(t *testing.T) {
	doc := markdown.Build("# Top\n3. **a** [x](y.md)\n```\nz\n```\n| h |\n|---|\n| 1 |\n", "/d.md")
	got := RenderJSON(doc)
	if got.Path != "/d.md" || got.BuildID != doc.BuildID || got.Title != "Top" {
		t.Errorf("header = %+v", got)
	}
	var types []string
	for _, b := range got.Blocks {
		types = append(types, b.Type)
	}
	if s := strings.Join(types, " "); s != "heading list_item code table_row table_row" {
		t.Fatalf("types = %q", s)
	}
	if got.Blocks[0].AnchorID != "top" {
		t.Errorf("anchor = %q", got.Blocks[0].AnchorID)
	}
	li := got.Blocks[1]
	if !li.Ordered || li.Ordinal != 3 || li.Number != "3" {
		t.Errorf("list item = %+v", li)
	}
	if len(li.Inline) != 3 || li.Inline[0].Type != "strong" || li.Inline[2].Type != "link" || li.Inline[2].Target != "y.md" {
		t.Errorf("inline = %+v", li.Inline)
	}
	if got.Blocks[2].Label != "text" || got.Blocks[2].Text != "z\n" {
		t.Errorf("code = %+v", got.Blocks[2])
	}
	if !got.Blocks[3].Cells[0].Header || got.Blocks[4].Cells[0].Header {
		t.Errorf("table = %+v", got.Blocks[3:])
	}
	if _, ok := got.Anchors["top"]; !ok {
		t.Errorf("anchors = %v", got.Anchors)
	}
}
