package buffer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

// Strategy pulls a JSON value out of the full raw text of a stream.
type Strategy interface {
	Name() string
	Extract(raw string) (any, error)
}

var (
	errNoBracket  = errors.New("no object or array")
	errNoFence    = errors.New("no code fence")
	errOpenFence  = errors.New("code fence not closed")
	errUnbalanced = errors.New("no closing bracket")
	errNoFragment = errors.New("no fragment")
)

// Built-in strategies.
var (
	// Direct parses the whole raw text strictly.
	Direct Strategy = strategyFunc{"direct", extractDirect}

	// Fenced parses the body of the first closed ``` block strictly.
	Fenced Strategy = strategyFunc{"fenced", extractFenced}

	// Brackets parses the span from the first opening bracket to the last
	// matching closer strictly.
	Brackets Strategy = strategyFunc{"brackets", extractBrackets}

	// Resilient applies jsonrepair.Parse once an opening bracket is present.
	Resilient Strategy = strategyFunc{"resilient", extractResilient}

	// LastFragment returns the last JSON fragment embedded in the text.
	LastFragment Strategy = strategyFunc{"last_fragment", extractLastFragment}
)

// DefaultStrategies is the order used by NewExtracting without arguments.
var DefaultStrategies = []Strategy{Direct, Fenced, Brackets, Resilient}

type strategyFunc struct {
	name string
	fn   func(raw string) (any, error)
}

func (s strategyFunc) Name() string                    { return s.name }
func (s strategyFunc) Extract(raw string) (any, error) { return s.fn(raw) }

func extractDirect(raw string) (any, error) {
	return jsonrepair.DecodeStrict(raw)
}

func extractFenced(raw string) (any, error) {
	open := strings.Index(raw, "```")
	if open < 0 {
		return nil, errNoFence
	}
	body := strings.TrimLeft(raw[open:], "`")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return nil, errOpenFence
	}
	return jsonrepair.DecodeStrict(body[:end])
}

func extractBrackets(raw string) (any, error) {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return nil, errNoBracket
	}
	closer := byte('}')
	if raw[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(raw, closer)
	if end < start {
		return nil, errUnbalanced
	}
	return jsonrepair.DecodeStrict(raw[start : end+1])
}

func extractResilient(raw string) (any, error) {
	if !strings.ContainsAny(raw, "{[") {
		return nil, errNoBracket
	}
	return jsonrepair.Parse(raw), nil
}

func extractLastFragment(raw string) (any, error) {
	frags := jsonrepair.Extract(raw, jsonrepair.StopOnLast)
	if len(frags) == 0 {
		return nil, errNoFragment
	}
	return frags[0].Value, nil
}

// Extracting is a JSON buffer for output that wraps JSON in prose or code
// fences. It tries its strategies in order and keeps the first success. When
// every strategy fails the previous normalized value is kept.
type Extracting struct {
	raw        string
	normalized string
	value      any
	strategy   string

	strategies []Strategy
	errs       []error
}

// NewExtracting returns an empty buffer using strategies, or
// DefaultStrategies when none are given.
func NewExtracting(strategies ...Strategy) Extracting {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return Extracting{strategies: strategies}
}

func (b Extracting) Assemble(delta string) Buffer {
	next := b
	next.raw = b.raw + delta
	next.errs = nil

	for _, s := range b.strategies {
		v, err := s.Extract(next.raw)
		var enc string
		if err == nil {
			enc, err = jsonrepair.Encode(v)
		}
		if err != nil {
			next.errs = append(next.errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		next.normalized, next.value, next.strategy = enc, v, s.Name()
		return next
	}
	return next
}

func (b Extracting) Raw() string        { return b.raw }
func (b Extracting) Normalized() string { return b.normalized }
func (b Extracting) Parsed() any        { return b.value }
func (b Extracting) IsEmpty() bool      { return b.normalized == "" }

// Strategy returns the name of the strategy behind Normalized, or "" if none
// has succeeded yet.
func (b Extracting) Strategy() string { return b.strategy }

// Errors returns the failures of the strategies tried on the last Assemble.
func (b Extracting) Errors() []error { return b.errs }
