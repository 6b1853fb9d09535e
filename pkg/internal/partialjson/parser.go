package partialjson

import (
	"fmt"

	"github.com/goccy/go-json"
)

// frame collects the children of one open object or array.
type frame interface {
	add(v any)
	materialize() any
	location() ([]string, bool)
}

// position is where a frame's value attaches. tracked is false for a
// container standing in key position.
type position struct {
	path    []string
	tracked bool
}

func (p position) location() ([]string, bool) { return p.path, p.tracked }

// objectFrame alternates between reading a key and reading its value.
// A later duplicate key overwrites the earlier value.
type objectFrame struct {
	position
	values     map[string]any
	pendingKey string
	hasPending bool
}

func (f *objectFrame) add(v any) {
	if !f.hasPending {
		f.pendingKey = keyString(v)
		f.hasPending = true
		return
	}
	f.values[f.pendingKey] = v
	f.hasPending = false
}

// materialize drops a key that never received its value.
func (f *objectFrame) materialize() any { return f.values }

type arrayFrame struct {
	position
	values []any
}

func (f *arrayFrame) add(v any) { f.values = append(f.values, v) }

func (f *arrayFrame) materialize() any {
	if f.values == nil {
		return []any{}
	}
	return f.values
}

// Parser builds a value tree from a token stream using an explicit stack of
// frames. It accepts any token sequence and closes whatever is still open at
// the end of input.
type Parser struct {
	stack    []frame
	root     any
	hasRoot  bool
	lastType TokenType
	consumed int

	incomplete map[string]bool
}

// Parse tokenizes s and returns the best-effort value tree. The boolean is
// false when s contains no value at all.
func Parse(s string) (any, bool) {
	var p Parser
	tz := NewTokenizer(s)
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		p.Consume(tok)
	}
	return p.Finish()
}

// Consume feeds one token into the parser.
func (p *Parser) Consume(tok Token) {
	defer func() {
		p.lastType = tok.Type
		p.consumed++
	}()

	switch tok.Type {
	case LeftBrace:
		p.stack = append(p.stack, &objectFrame{position: p.openPosition(), values: make(map[string]any)})
	case LeftBracket:
		p.stack = append(p.stack, &arrayFrame{position: p.openPosition()})
	case RightBrace, RightBracket:
		if len(p.stack) > 0 {
			p.pop()
		}
	case Colon, Comma:
	default:
		if p.isStrayWord(tok) {
			return
		}
		if tok.Type == StringPartial || tok.Type == NumberPartial {
			if path, ok := p.childPath(); ok {
				p.markIncomplete(path)
			}
		}
		p.attach(scalarValue(tok))
	}
}

// Finish closes every open frame, recording each as incomplete, and returns
// the root value.
func (p *Parser) Finish() (any, bool) {
	for len(p.stack) > 0 {
		if path, ok := p.top().location(); ok {
			p.markIncomplete(path)
		}
		p.pop()
	}
	return p.root, p.hasRoot
}

// isStrayWord reports a bare word glued to a truncated number, e.g. the
// "abc" in {"n": 12abc}. It is only dropped where it would otherwise become
// a new object key.
func (p *Parser) isStrayWord(tok Token) bool {
	if p.consumed == 0 || p.lastType != NumberPartial || tok.Type != String || !tok.Bare {
		return false
	}
	obj, ok := p.top().(*objectFrame)
	return ok && !obj.hasPending
}

// openPosition places a container about to be pushed. A new top-level
// container starts a new document, so earlier records are dropped.
func (p *Parser) openPosition() position {
	if len(p.stack) == 0 {
		p.incomplete = nil
		return position{tracked: true}
	}
	path, ok := p.childPath()
	return position{path: path, tracked: ok}
}

func (p *Parser) top() frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pop() {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.attach(f.materialize())
}

// attach hands v to the open frame, or makes it the root. A scalar never
// replaces a container root, so prose trailing a document cannot erase it.
func (p *Parser) attach(v any) {
	if f := p.top(); f != nil {
		f.add(v)
		return
	}
	if p.hasRoot && isContainer(p.root) && !isContainer(v) {
		return
	}
	p.root = v
	p.hasRoot = true
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func scalarValue(tok Token) any {
	switch tok.Type {
	case String, StringPartial:
		return tok.Value
	case Number, NumberPartial:
		if n := numberPrefix(tok.Value); n != "" {
			return json.Number(n)
		}
		return nil
	case True:
		return true
	case False:
		return false
	}
	return nil
}

// keyString coerces a non-string key into its JSON text.
func keyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// numberPrefix returns the longest prefix of raw that is a valid JSON number,
// or "" if there is none.
func numberPrefix(raw string) string {
	i := 0
	if i < len(raw) && raw[i] == '-' {
		i++
	}
	switch {
	case i < len(raw) && raw[i] == '0':
		i++
	case i < len(raw) && raw[i] >= '1' && raw[i] <= '9':
		for i < len(raw) && isDigit(raw[i]) {
			i++
		}
	default:
		return ""
	}
	end := i

	if i < len(raw) && raw[i] == '.' {
		j := i + 1
		for j < len(raw) && isDigit(raw[j]) {
			j++
		}
		if j == i+1 {
			return raw[:end]
		}
		i, end = j, j
	}

	if i < len(raw) && (raw[i] == 'e' || raw[i] == 'E') {
		j := i + 1
		if j < len(raw) && (raw[j] == '+' || raw[j] == '-') {
			j++
		}
		k := j
		for k < len(raw) && isDigit(raw[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}
	return raw[:end]
}
