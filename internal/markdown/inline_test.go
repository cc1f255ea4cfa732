package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseInline_Forms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Inline
	}{
		{"plain", "hello", []Inline{Text{"hello"}}},
		{"empty", "", nil},
		{"strong", "a **b** c", []Inline{Text{"a "}, Strong{[]Inline{Text{"b"}}}, Text{" c"}}},
		{"emphasis", "*it*", []Inline{Emphasis{[]Inline{Text{"it"}}}}},
		{"code", "x `a*b*` y", []Inline{Text{"x "}, Code{"a*b*"}, Text{" y"}}},
		{"link", "see [docs](./a.md)", []Inline{Text{"see "}, Link{Target: "./a.md", Label: []Inline{Text{"docs"}}}}},
		{"link with strong label", "[**b**](u)", []Inline{Link{Target: "u", Label: []Inline{Strong{[]Inline{Text{"b"}}}}}}},
		{"strong with nested emphasis", "**a *b* c**", []Inline{Strong{[]Inline{Text{"a "}, Emphasis{[]Inline{Text{"b"}}}, Text{" c"}}}}},
		{"empty strong", "****", []Inline{Strong{}}},
		{"code not parsed inside", "`[x](y)`", []Inline{Code{"[x](y)"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseInline(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseInline(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseInline_UnmatchedDelimitersStayLiteral(t *testing.T) {
	cases := []string{
		"trailing *",
		"open ** never closed",
		"tick ` alone",
		"[label without target]",
		"[label](no close",
		"[a] (b)",
		"*",
		"**",
		"`",
		"[",
	}
	for _, in := range cases {
		got := ParseInline(in)
		if len(got) != 1 {
			t.Errorf("ParseInline(%q) = %#v, want a single text node", in, got)
			continue
		}
		if txt, ok := got[0].(Text); !ok || txt.Value != in {
			t.Errorf("ParseInline(%q) = %#v, want Text(%q)", in, got, in)
		}
	}
}

func TestParseInline_UnmatchedStrongSkipsBothStars(t *testing.T) {
	// The "**" opener has no partner, so it must not be re-read as an
	// emphasis opener pairing with the later '*'.
	got := ParseInline("**a *b")
	want := []Inline{Text{"**a *b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseInline_GreedyLeftToRight(t *testing.T) {
	got := ParseInline("*a **b**")
	want := []Inline{
		Emphasis{[]Inline{Text{"a "}}},
		Emphasis{[]Inline{Text{"b"}}},
		Text{"*"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseInline_LinkUsesFirstBrackets(t *testing.T) {
	got := ParseInline("[a [b](c)](d)")
	want := []Inline{
		Link{Target: "c", Label: []Inline{Text{"a [b"}}},
		Text{"](d)"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseInline_SourceRoundTrip(t *testing.T) {
	lines := []string{
		"Some **bold** and `code`.",
		"*a **b** c* d",
		"[x **y**](z) and [broken](",
		"** lonely and * single",
		"mixed `code` *em* **strong** [l](t) tail",
		"unicode: héllo *wörld*",
		"a](b) [c] (d) [e](f)",
	}
	for _, in := range lines {
		if got := Source(ParseInline(in)); got != in {
			t.Errorf("Source(ParseInline(%q)) = %q", in, got)
		}
	}
}

func TestParseInline_PlainTextWithoutDelimiters(t *testing.T) {
	in := "Nothing special here, just words & symbols (like these) #1."
	if got := PlainText(ParseInline(in)); got != in {
		t.Errorf("PlainText = %q, want %q", got, in)
	}
}

func TestParseInline_DepthCap(t *testing.T) {
	got := parseInline("**deep**", maxInlineDepth)
	want := []Inline{Text{"**deep**"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseInline_LongAdversarialInput(t *testing.T) {
	in := strings.Repeat("[", 5000) + strings.Repeat("*", 5000)
	if got := Source(ParseInline(in)); got != in {
		t.Error("adversarial input not preserved")
	}
}

func TestLinks_CollectsNested(t *testing.T) {
	nodes := ParseInline("**see [a](x.md)** and *[b](#y)*")
	links := Links(nodes)
	if len(links) != 2 || links[0].Target != "x.md" || links[1].Target != "#y" {
		t.Errorf("links = %#v", links)
	}
}
