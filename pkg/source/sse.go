// Package source reads LLM deltas from wire formats.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/deepankarm/partialstream/pkg/stream"
)

const maxLine = 4 << 20

var (
	contentPath  = []string{"choices", "[0]", "delta", "content"}
	toolNamePath = []string{"choices", "[0]", "delta", "tool_calls", "[0]", "function", "name"}
	toolArgsPath = []string{"choices", "[0]", "delta", "tool_calls", "[0]", "function", "arguments"}
)

// SSE reads an OpenAI-style chat completion stream: server-sent events whose
// data lines hold chat.completion.chunk objects, ending with "data: [DONE]".
type SSE struct {
	scanner *bufio.Scanner
	err     error
}

// NewSSE returns a reader over r.
func NewSSE(r io.Reader) *SSE {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &SSE{scanner: scanner}
}

// Err returns the error that stopped Deltas, if any.
func (s *SSE) Err() error {
	return s.err
}

// Deltas yields one delta per chunk carrying content or tool-call data.
// Chunks without either, such as role-only or usage chunks, are skipped.
func (s *SSE) Deltas() iter.Seq[stream.Delta] {
	return func(yield func(stream.Delta) bool) {
		for s.scanner.Scan() {
			line, ok := strings.CutPrefix(s.scanner.Text(), "data:")
			if !ok {
				continue
			}
			line = strings.TrimSpace(line)
			if line == "[DONE]" {
				return
			}
			d, err := parseChunk([]byte(line))
			if err != nil {
				s.err = fmt.Errorf("error parsing chunk: %w", err)
				return
			}
			if d == (stream.Delta{}) {
				continue
			}
			if !yield(d) {
				return
			}
		}
		if err := s.scanner.Err(); err != nil {
			s.err = err
		}
	}
}

func parseChunk(data []byte) (stream.Delta, error) {
	var d stream.Delta
	var err error
	if d.ContentDelta, err = optionalString(data, contentPath...); err != nil {
		return d, err
	}
	if d.ToolName, err = optionalString(data, toolNamePath...); err != nil {
		return d, err
	}
	if d.ToolArgs, err = optionalString(data, toolArgsPath...); err != nil {
		return d, err
	}
	return d, nil
}

// optionalString returns the string at path, or "" if the path is absent or
// null.
func optionalString(data []byte, path ...string) (string, error) {
	v, typ, _, err := jsonparser.Get(data, path...)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return "", nil
	case err != nil:
		return "", err
	case typ == jsonparser.Null:
		return "", nil
	case typ != jsonparser.String:
		return "", fmt.Errorf("%s: expected string, got %s", strings.Join(path, "."), typ)
	}
	return jsonparser.ParseString(v)
}
