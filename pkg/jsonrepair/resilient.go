// Package jsonrepair turns JSON-ish LLM output into values. It tries a strict
// parse first, then a few textual repairs, and finally the lenient frame
// parser, so a caller always gets the best value the text allows.
package jsonrepair

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tailscale/hujson"

	"github.com/deepankarm/partialstream/pkg/internal/partialjson"
)

// Step identifies the repair step that produced a value.
type Step int

const (
	StepNone     Step = iota // no value found
	StepNative               // strict parse of the text, or of the text from its first bracket
	StepRepaired             // strict parse after closing quotes/brackets and dropping trailing commas
	StepLenient              // lenient frame parser on the original text
)

func (s Step) String() string {
	switch s {
	case StepNative:
		return "native"
	case StepRepaired:
		return "repaired"
	case StepLenient:
		return "lenient"
	}
	return "none"
}

// Report describes how ParseWithReport arrived at its value.
type Report struct {
	Step Step

	// Errors holds the failures of the steps tried before Step.
	Errors []error
}

var (
	errNoValue     = errors.New("no JSON value found")
	errInvalidJSON = errors.New("invalid JSON")
)

// Parse returns the best-effort value of text. It never fails; text without
// any value yields nil.
func Parse(text string) any {
	v, _ := ParseWithReport(text)
	return v
}

// ParseWithReport is Parse plus a report of the step that succeeded.
func ParseWithReport(text string) (any, Report) {
	var rep Report

	// A valid document is returned as is, even a scalar whose string holds a
	// bracket; only then is leading prose cut off.
	v, err := DecodeStrict(text)
	if err == nil {
		rep.Step = StepNative
		return v, rep
	}

	slice := text
	if i := strings.IndexAny(text, "{["); i > 0 {
		slice = text[i:]
		if v, err = DecodeStrict(slice); err == nil {
			rep.Step = StepNative
			return v, rep
		}
	}
	rep.Errors = append(rep.Errors, fmt.Errorf("native: %w", err))

	v, err = DecodeStrict(repairText(slice))
	if err == nil {
		rep.Step = StepRepaired
		return v, rep
	}
	rep.Errors = append(rep.Errors, fmt.Errorf("repaired: %w", err))

	v, ok := partialjson.Parse(text)
	if !ok {
		rep.Errors = append(rep.Errors, fmt.Errorf("lenient: %w", errNoValue))
		return nil, rep
	}
	rep.Step = StepLenient
	return v, rep
}

// Repair returns the canonical JSON text of Parse(text). It only fails when
// text holds no value at all.
func Repair(text string) (string, error) {
	v, rep := ParseWithReport(text)
	if rep.Step == StepNone {
		return "", errNoValue
	}
	return Encode(v)
}

// Encode renders v as canonical JSON: compact, with object keys sorted.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeStrict parses s as exactly one JSON value, keeping numbers as
// json.Number so integers survive unchanged. Valid rejects trailing data.
func DecodeStrict(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNoValue
	}
	if !json.Valid([]byte(s)) {
		return nil, errInvalidJSON
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// repairText applies the minimal textual fixes: an unterminated string is
// closed, open brackets are closed in nesting order, and trailing commas are
// removed.
func repairText(s string) string {
	var closers []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			closers = append(closers, '}')
		case '[':
			closers = append(closers, ']')
		case '}', ']':
			if n := len(closers); n > 0 && closers[n-1] == ch {
				closers = closers[:n-1]
			}
		}
	}

	var b strings.Builder
	if inString && escaped {
		// A dangling backslash would escape the quote we are about to add.
		s = s[:len(s)-1]
	}
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteByte(closers[i])
	}

	out := []byte(b.String())
	if std, err := hujson.Standardize(out); err == nil {
		return string(std)
	}
	return string(out)
}
