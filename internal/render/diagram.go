package render

import "html"

// Mermaid hands diagram source to a client-side mermaid runtime: the markup
// is the escaped source inside a mermaid container, available immediately.
type Mermaid struct{}

// RenderDiagram implements DiagramRenderer.
func (Mermaid) RenderDiagram(source string, done func(string, error)) {
	done(`<pre class="mermaid">`+html.EscapeString(source)+`</pre>`, nil)
}

// DiagramFunc adapts a function to DiagramRenderer.
type DiagramFunc func(source string, done func(string, error))

// RenderDiagram implements DiagramRenderer.
func (f DiagramFunc) RenderDiagram(source string, done func(string, error)) {
	f(source, done)
}
