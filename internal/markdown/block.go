package markdown

import (
	"math"
	"strconv"
	"strings"
)

const fenceMarker = "```"

// FenceState records whether the scanner is inside a fenced code block and
// the language the fence was opened with.
type FenceState struct {
	Open     bool
	Language string
}

// Line is the classification of a single source line.
//
// Kind is KindFence for an opening or closing fence line and KindCodeBlock
// for a line inside an open fence. Text is the block payload: heading text,
// quote text, list item text, or the raw line for paragraphs and fenced
// content.
type Line struct {
	Kind     BlockKind
	Text     string
	Level    int
	Ordinal  int
	Number   string
	Language string
}

// Classify assigns a block kind to line given the current fence state and
// returns the fence state that applies to the next line.
//
// Rules are tried in order against the trimmed line: fence toggle,
// blockquote, horizontal rule, unordered list, ordered list, heading (levels
// 1 to 3 only), blank, paragraph. While a fence is open only the fence rule
// applies.
func Classify(line string, fence FenceState) (Line, FenceState) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fenceMarker) {
		if fence.Open {
			return Line{Kind: KindFence, Language: fence.Language}, FenceState{}
		}
		lang := strings.TrimSpace(trimmed[len(fenceMarker):])
		return Line{Kind: KindFence, Language: lang}, FenceState{Open: true, Language: lang}
	}
	if fence.Open {
		return Line{Kind: KindCodeBlock, Text: line, Language: fence.Language}, fence
	}

	switch {
	case strings.HasPrefix(trimmed, "> "):
		return Line{Kind: KindBlockquote, Text: trimmed[2:]}, fence
	case trimmed == "---" || trimmed == "___" || trimmed == "***":
		return Line{Kind: KindHorizontalRule}, fence
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		return Line{Kind: KindListItem, Text: trimmed[2:]}, fence
	}

	if digits := leadingDigits(trimmed); digits != "" && len(trimmed) > len(digits) && trimmed[len(digits)] == '.' {
		return Line{
			Kind:    KindListItem,
			Text:    strings.TrimSpace(trimmed[len(digits)+1:]),
			Ordinal: parseOrdinal(digits),
			Number:  digits,
		}, fence
	}

	if level := headingLevel(trimmed); level > 0 {
		return Line{Kind: KindHeading, Level: level, Text: trimmed[level+1:]}, fence
	}

	if trimmed == "" {
		return Line{Kind: KindBlank}, fence
	}
	return Line{Kind: KindParagraph, Text: line}, fence
}

// headingLevel returns 1..3 for "# ", "## " and "### " prefixes, else 0.
func headingLevel(trimmed string) int {
	for level := 1; level <= 3; level++ {
		if strings.HasPrefix(trimmed, strings.Repeat("#", level)+" ") {
			return level
		}
	}
	return 0
}

func leadingDigits(s string) string {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return s[:n]
}

func parseOrdinal(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}
