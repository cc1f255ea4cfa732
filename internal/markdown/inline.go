package markdown

import "strings"

// maxInlineDepth bounds recursion into strong, emphasis and link labels.
// Content at the limit is kept as literal text.
const maxInlineDepth = 32

// ParseInline parses one line of text into inline nodes.
//
// The line is scanned left to right. At each position the delimiters are
// tried in a fixed order: "**" strong, "*" emphasis, "`" code, then
// "[label](target)". A delimiter without its closing partner is kept as
// literal text and scanning continues after it. Matching is greedy: the
// first closer found wins.
func ParseInline(line string) []Inline {
	return parseInline(line, 0)
}

func parseInline(s string, depth int) []Inline {
	if s == "" {
		return nil
	}
	if depth >= maxInlineDepth {
		return []Inline{Text{Value: s}}
	}

	var out []Inline
	start := 0 // first byte of the pending literal run
	flush := func(end int) {
		if end > start {
			out = append(out, Text{Value: s[start:end]})
		}
	}

	i := 0
	for i < len(s) {
		switch s[i] {
		case '*':
			if strings.HasPrefix(s[i:], "**") {
				if end := strings.Index(s[i+2:], "**"); end >= 0 {
					flush(i)
					out = append(out, Strong{Children: parseInline(s[i+2:i+2+end], depth+1)})
					i += 2 + end + 2
					start = i
					continue
				}
				// Unmatched opener: both stars stay literal.
				i += 2
				continue
			}
			if end := strings.IndexByte(s[i+1:], '*'); end >= 0 {
				flush(i)
				out = append(out, Emphasis{Children: parseInline(s[i+1:i+1+end], depth+1)})
				i += 1 + end + 1
				start = i
				continue
			}
			i++

		case '`':
			if end := strings.IndexByte(s[i+1:], '`'); end >= 0 {
				flush(i)
				out = append(out, Code{Value: s[i+1 : i+1+end]})
				i += 1 + end + 1
				start = i
				continue
			}
			i++

		case '[':
			if next, link, ok := scanLink(s, i, depth); ok {
				flush(i)
				out = append(out, link)
				i = next
				start = i
				continue
			}
			i++

		default:
			i++
		}
	}
	flush(len(s))
	return out
}

// scanLink tries to read [label](target) starting at s[i] == '['. It
// returns the index just past the closing parenthesis.
func scanLink(s string, i, depth int) (int, Link, bool) {
	closeBracket := strings.IndexByte(s[i:], ']')
	if closeBracket < 0 {
		return 0, Link{}, false
	}
	closeBracket += i
	if closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return 0, Link{}, false
	}
	closeParen := strings.IndexByte(s[closeBracket+2:], ')')
	if closeParen < 0 {
		return 0, Link{}, false
	}
	closeParen += closeBracket + 2
	return closeParen + 1, Link{
		Target: s[closeBracket+2 : closeParen],
		Label:  parseInline(s[i+1:closeBracket], depth+1),
	}, true
}
