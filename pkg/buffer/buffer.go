// Package buffer accumulates streamed text deltas and keeps a normalized,
// strictly parseable JSON rendering of everything seen so far.
//
// Buffers are immutable values: Assemble returns a new buffer and leaves the
// receiver untouched. Every Assemble recomputes the normalized form from the
// full raw text, so cost grows with the length of the stream.
package buffer

import (
	"fmt"
	"strings"

	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

// Buffer is an accumulator for one output stream.
type Buffer interface {
	// Assemble returns a new buffer with delta appended to the raw text.
	Assemble(delta string) Buffer

	// Raw returns the concatenation of every delta.
	Raw() string

	// Normalized returns the best-effort rendering of Raw. For JSON
	// buffers it is always valid JSON once non-empty.
	Normalized() string

	// Parsed returns the value behind Normalized, or nil.
	Parsed() any

	// IsEmpty reports whether Normalized is still empty.
	IsEmpty() bool
}

// Equal reports whether a and b have the same normalized text.
func Equal(a, b Buffer) bool {
	return a.Normalized() == b.Normalized()
}

// Mode selects the buffer used for an output stream.
type Mode string

const (
	ModeText    Mode = "text"
	ModeJSON    Mode = "json"
	ModeExtract Mode = "extract"
)

// ParseMode converts a mode name, as used in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeJSON, ModeExtract:
		return m, nil
	}
	return "", fmt.Errorf("unknown buffer mode %q", s)
}

// ForMode returns an empty buffer for m. Unknown modes get a JSON buffer.
func ForMode(m Mode) Buffer {
	switch m {
	case ModeText:
		return Text{}
	case ModeExtract:
		return NewExtracting()
	}
	return JSON{}
}

// Text is a plain text buffer; its normalized form is the trimmed raw text.
type Text struct {
	raw string
}

func (b Text) Assemble(delta string) Buffer { return Text{raw: b.raw + delta} }
func (b Text) Raw() string                  { return b.raw }
func (b Text) Normalized() string           { return strings.TrimSpace(b.raw) }
func (b Text) IsEmpty() bool                { return b.Normalized() == "" }

// Parsed returns the normalized text, or nil while it is empty.
func (b Text) Parsed() any {
	if b.IsEmpty() {
		return nil
	}
	return b.Normalized()
}

// JSON is a buffer for raw JSON content. It stays empty until the first
// brace or bracket arrives, then renders the best-effort value of the whole
// raw text as canonical JSON.
type JSON struct {
	raw        string
	normalized string
	value      any
}

func (b JSON) Assemble(delta string) Buffer {
	next := JSON{raw: b.raw + delta, normalized: b.normalized, value: b.value}
	if !strings.ContainsAny(next.raw, "{[") {
		return next
	}
	v := jsonrepair.Parse(next.raw)
	if v == nil {
		return next
	}
	if s, err := jsonrepair.Encode(v); err == nil {
		next.normalized, next.value = s, v
	}
	return next
}

func (b JSON) Raw() string        { return b.raw }
func (b JSON) Normalized() string { return b.normalized }
func (b JSON) Parsed() any        { return b.value }
func (b JSON) IsEmpty() bool      { return b.normalized == "" }
