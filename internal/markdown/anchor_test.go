package markdown

import (
	"sync"
	"testing"
)

func TestAnchorID(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":           "hello-world",
		"Title":                   "title",
		"  Leading and trailing ": "leading-and-trailing",
		"a - b":                   "a-b",
		"Step 2: Install":         "step-2-install",
		"snake_case":              "snakecase",
		"---dashes---":            "dashes",
		"Café au lait":            "caf-au-lait",
		"!!!":                     "",
		"tabs\tand\nnewlines":     "tabs-and-newlines",
	}
	for in, want := range cases {
		if got := AnchorID(in); got != want {
			t.Errorf("AnchorID(%q) = %q, want %q", in, got, want)
		}
		if AnchorID(in) != AnchorID(in) {
			t.Errorf("AnchorID(%q) not deterministic", in)
		}
	}
}

func TestAnchorIndex_SetOverwrites(t *testing.T) {
	x := NewAnchorIndex()
	if _, ok := x.Get("a"); ok {
		t.Fatal("empty index returned a value")
	}
	x.Set("a", 100)
	x.Set("a", 42.5)
	off, ok := x.Get("a")
	if !ok || off != 42.5 {
		t.Errorf("Get(a) = %v, %v; want 42.5, true", off, ok)
	}
	if x.Len() != 1 {
		t.Errorf("Len = %d", x.Len())
	}
}

func TestAnchorIndex_SnapshotIsCopy(t *testing.T) {
	x := NewAnchorIndex()
	x.Set("a", 1)
	snap := x.Snapshot()
	snap["a"] = 99
	if off, _ := x.Get("a"); off != 1 {
		t.Errorf("snapshot mutation leaked: %v", off)
	}
}

func TestAnchorIndex_ConcurrentSet(t *testing.T) {
	x := NewAnchorIndex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x.Set("h", float64(i))
			_, _ = x.Get("h")
		}(i)
	}
	wg.Wait()
	if x.Len() != 1 {
		t.Errorf("Len = %d", x.Len())
	}
}
