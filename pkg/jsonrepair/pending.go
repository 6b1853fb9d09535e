package jsonrepair

import (
	"sort"

	"github.com/deepankarm/partialstream/pkg/internal/partialjson"
)

// Paths is a set of locations in a JSON document, written the way
// validators report them: "steps[1].text", with "" for the root.
type Paths struct {
	set map[string]bool
}

// Pending returns the locations in text whose values were still arriving
// when text ended: truncated strings and numbers, and every container that
// only the end of input closed. Paths are relative to the last top-level
// container in text, which is the value Parse returns for streamed JSON.
func Pending(text string) Paths {
	return Paths{set: partialjson.Incomplete(text)}
}

// Has reports whether path is pending.
func (p Paths) Has(path string) bool { return p.set[path] }

// Len returns the number of pending paths.
func (p Paths) Len() int { return len(p.set) }

// List returns the pending paths in sorted order.
func (p Paths) List() []string {
	out := make([]string, 0, len(p.set))
	for path := range p.set {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
