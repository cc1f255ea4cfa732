package markdown

import (
	"strings"
	"sync"
	"unicode"
)

// AnchorID derives the fragment key for a heading: lowercase, drop every
// character outside [a-z0-9], whitespace and '-', turn whitespace runs into
// a single hyphen, collapse repeated hyphens, and trim hyphens at both ends.
//
//	AnchorID("Hello, World!") == "hello-world"
func AnchorID(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return b.String()
}

// AnchorIndex maps anchor IDs to vertical offsets. Entries start as
// estimates from the builder and are overwritten with measured offsets once
// the renderer has laid out the heading. Set always replaces the previous
// value; entries are never removed. A rebuilt document gets a new index.
type AnchorIndex struct {
	mu      sync.RWMutex
	offsets map[string]float64
}

// NewAnchorIndex returns an empty index.
func NewAnchorIndex() *AnchorIndex {
	return &AnchorIndex{offsets: make(map[string]float64)}
}

// Set records offset for id, replacing any earlier value.
func (x *AnchorIndex) Set(id string, offset float64) {
	x.mu.Lock()
	x.offsets[id] = offset
	x.mu.Unlock()
}

// Get returns the offset recorded for id.
func (x *AnchorIndex) Get(id string) (float64, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	off, ok := x.offsets[id]
	return off, ok
}

// Len returns the number of distinct anchors.
func (x *AnchorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.offsets)
}

// Snapshot returns a copy of the current entries.
func (x *AnchorIndex) Snapshot() map[string]float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]float64, len(x.offsets))
	for k, v := range x.offsets {
		out[k] = v
	}
	return out
}
