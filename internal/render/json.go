package render

import (
	"github.com/starford/bergen/internal/markdown"
)

// InlineJSON is the JSON form of an inline node.
type InlineJSON struct {
	Type     string       `json:"type"`
	Value    string       `json:"value,omitempty"`
	Target   string       `json:"target,omitempty"`
	Children []InlineJSON `json:"children,omitempty"`
}

// CellJSON is one table cell.
type CellJSON struct {
	Header bool         `json:"header,omitempty"`
	Inline []InlineJSON `json:"inline"`
}

// BlockJSON is the JSON form of a block node. Only the fields of its Type
// are set.
type BlockJSON struct {
	Type     string       `json:"type"`
	Level    int          `json:"level,omitempty"`
	AnchorID string       `json:"anchor_id,omitempty"`
	Language string       `json:"language,omitempty"`
	Label    string       `json:"label,omitempty"`
	Text     string       `json:"text,omitempty"`
	Ordered  bool         `json:"ordered,omitempty"`
	Ordinal  int          `json:"ordinal,omitempty"`
	Number   string       `json:"number,omitempty"`
	Inline   []InlineJSON `json:"inline,omitempty"`
	Cells    []CellJSON   `json:"cells,omitempty"`
}

// DocumentJSON is a whole document as sent to API and MCP clients.
type DocumentJSON struct {
	Path    string             `json:"path"`
	BuildID string             `json:"build_id"`
	Title   string             `json:"title"`
	Blocks  []BlockJSON        `json:"blocks"`
	Anchors map[string]float64 `json:"anchors"`
}

// JSON collects blocks into their JSON form.
type JSON struct {
	blocks []BlockJSON
}

// RenderJSON converts doc. Anchors holds the offsets known at call time.
func RenderJSON(doc *markdown.Document) DocumentJSON {
	j := &JSON{blocks: make([]BlockJSON, 0, len(doc.Nodes))}
	Dispatch(doc, j)
	return DocumentJSON{
		Path:    doc.Path,
		BuildID: doc.BuildID,
		Title:   doc.Title(),
		Blocks:  j.blocks,
		Anchors: doc.Anchors.Snapshot(),
	}
}

func (j *JSON) add(b BlockJSON) { j.blocks = append(j.blocks, b) }

// Heading implements Renderer.
func (j *JSON) Heading(h markdown.Heading) {
	j.add(BlockJSON{Type: "heading", Level: h.Level, AnchorID: h.AnchorID, Inline: inlineJSON(h.Inline)})
}

// Paragraph implements Renderer.
func (j *JSON) Paragraph(p markdown.Paragraph) {
	j.add(BlockJSON{Type: "paragraph", Inline: inlineJSON(p.Inline)})
}

// CodeBlock implements Renderer.
func (j *JSON) CodeBlock(c markdown.CodeBlock) {
	j.add(BlockJSON{Type: "code", Language: c.Language, Label: LanguageLabel(c.Language), Text: c.Text})
}

// Diagram implements Renderer.
func (j *JSON) Diagram(d markdown.DiagramBlock) {
	j.add(BlockJSON{Type: "diagram", Text: d.Source})
}

// Blockquote implements Renderer.
func (j *JSON) Blockquote(q markdown.Blockquote) {
	j.add(BlockJSON{Type: "blockquote", Inline: inlineJSON(q.Inline)})
}

// HorizontalRule implements Renderer.
func (j *JSON) HorizontalRule() { j.add(BlockJSON{Type: "rule"}) }

// ListItem implements Renderer.
func (j *JSON) ListItem(li markdown.ListItem) {
	b := BlockJSON{Type: "list_item", Ordered: li.Ordered, Inline: inlineJSON(li.Inline)}
	if li.Ordered {
		b.Ordinal = li.Ordinal
		b.Number = li.Number
	}
	j.add(b)
}

// TableRow implements Renderer.
func (j *JSON) TableRow(row markdown.TableRow) {
	cells := make([]CellJSON, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = CellJSON{Header: c.IsHeader, Inline: inlineJSON(c.Inline)}
	}
	j.add(BlockJSON{Type: "table_row", Cells: cells})
}

// Blank implements Renderer.
func (j *JSON) Blank() { j.add(BlockJSON{Type: "blank"}) }

func inlineJSON(nodes []markdown.Inline) []InlineJSON {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]InlineJSON, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case markdown.Text:
			out = append(out, InlineJSON{Type: "text", Value: v.Value})
		case markdown.Strong:
			out = append(out, InlineJSON{Type: "strong", Children: inlineJSON(v.Children)})
		case markdown.Emphasis:
			out = append(out, InlineJSON{Type: "emphasis", Children: inlineJSON(v.Children)})
		case markdown.Code:
			out = append(out, InlineJSON{Type: "code", Value: v.Value})
		case markdown.Link:
			out = append(out, InlineJSON{Type: "link", Target: v.Target, Children: inlineJSON(v.Label)})
		}
	}
	return out
}
