package mcpserver

// MarkdownSyntax describes the Markdown subset bergen renders. LLM
// consumers should read it before interpreting rendered output or writing
// documents meant for the library.
const MarkdownSyntax = `# bergen Markdown Syntax

bergen renders a deliberately small, line-oriented subset of Markdown.
Every line is classified on its own; there are no multi-line paragraphs,
nested lists or lazy continuation lines.

## Block rules (first match wins)

1. A line starting with ` + "```" + ` opens or closes a fenced block. Text after the
   opening fence is the language. Fenced lines are kept verbatim.
2. ` + "`> `" + ` starts a single-line blockquote.
3. ` + "`---`" + `, ` + "`___`" + ` or ` + "`***`" + ` alone on a line is a horizontal rule.
4. ` + "`- `" + ` or ` + "`* `" + ` starts an unordered list item; ` + "`12.`" + ` an ordered one.
   The number is displayed exactly as written.
5. ` + "`# `" + `, ` + "`## `" + `, ` + "`### `" + ` start headings of level 1 to 3. A space after the
   hashes is required; deeper headings are paragraphs.
6. An empty or whitespace-only line is a blank line.
7. A line starting with ` + "`|`" + ` is a table row. The first row of a run is the
   header; a delimiter row (` + "`|---|:--:|`" + `) right after it is absorbed.
8. Anything else is a paragraph.

## Inline spans

- ` + "`**strong**`" + `, ` + "`*emphasis*`" + `, ` + "`` `code` ``" + ` and ` + "`[label](target)`" + `.
- Strong, emphasis and link labels may nest; code is literal.
- An unmatched delimiter is kept as literal text.

## Diagrams

A fenced block whose language is exactly ` + "`mermaid`" + ` (configurable) is sent to
the diagram renderer instead of the syntax highlighter.

## Headings and anchors

Each heading gets an anchor ID: lowercase, characters outside ` + "`[a-z0-9 -]`" + `
removed, whitespace runs replaced by one hyphen, repeated hyphens collapsed,
leading and trailing hyphens trimmed. ` + "`## Step 2: Install!`" + ` becomes ` + "`step-2-install`" + `.
Duplicate headings share an ID; the last one wins for scrolling.

## Links

- ` + "`#anchor`" + ` scrolls within the current document.
- A target without a scheme is a path relative to the current document
  (` + "`./x.md`" + `, ` + "`../dir/x.md`" + `) or, when it starts with ` + "`/`" + `, relative to the
  library root. ` + "`#anchor`" + ` may follow. It must exist; otherwise the link is inert.
- ` + "`.md`" + ` and ` + "`.markdown`" + ` targets open in a tab; other files open as ` + "`file://`" + ` URLs.
- ` + "`http`" + `, ` + "`https`" + ` and ` + "`file`" + ` URLs are normalised; other schemes (` + "`mailto:`" + `)
  are passed through unchanged.

## Example

` + "```" + `markdown
# Install guide

Read the [overview](../overview.md#goals) first.

## Step 2

1. Run **make**
2. See [the FAQ](/faq.md)

| Flag | Meaning |
|------|---------|
| -v   | verbose |
` + "```" + `
`
