package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/deepankarm/partialstream/pkg/stream"
)

// NDJSON reads one JSON-encoded stream.Delta per line, e.g.
//
//	{"tool_name": "search"}
//	{"tool_args": "{\"q\": \"go"}
type NDJSON struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewNDJSON returns a reader over r.
func NewNDJSON(r io.Reader) *NDJSON {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &NDJSON{scanner: scanner}
}

// Err returns the error that stopped Deltas, if any.
func (n *NDJSON) Err() error {
	return n.err
}

// Deltas yields the decoded lines. Blank lines are skipped.
func (n *NDJSON) Deltas() iter.Seq[stream.Delta] {
	return func(yield func(stream.Delta) bool) {
		for n.scanner.Scan() {
			n.line++
			line := bytes.TrimSpace(n.scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var d stream.Delta
			if err := json.Unmarshal(line, &d); err != nil {
				n.err = fmt.Errorf("line %d: %w", n.line, err)
				return
			}
			if !yield(d) {
				return
			}
		}
		if err := n.scanner.Err(); err != nil {
			n.err = err
		}
	}
}

// Chunks splits text into content deltas of about size bytes, never cutting
// a UTF-8 sequence in half. It simulates a token stream from a finished
// response.
func Chunks(text string, size int) iter.Seq[stream.Delta] {
	if size < 1 {
		size = 1
	}
	return func(yield func(stream.Delta) bool) {
		rest := text
		for len(rest) > 0 {
			n := min(size, len(rest))
			for n < len(rest) && !utf8.RuneStart(rest[n]) {
				n++
			}
			if !yield(stream.Delta{ContentDelta: rest[:n]}) {
				return
			}
			rest = rest[n:]
		}
	}
}
