package partialjson

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// TokenType is the lexical category of a Token.
type TokenType int

// Token types produced by the Tokenizer. The Partial variants are only
// produced for values cut off by the end of input.
const (
	LeftBrace TokenType = iota
	RightBrace
	LeftBracket
	RightBracket
	Colon
	Comma
	String
	StringPartial
	Number
	NumberPartial
	True
	False
	Null
)

var tokenNames = [...]string{
	LeftBrace:     "{",
	RightBrace:    "}",
	LeftBracket:   "[",
	RightBracket:  "]",
	Colon:         ":",
	Comma:         ",",
	String:        "string",
	StringPartial: "partial string",
	Number:        "number",
	NumberPartial: "partial number",
	True:          "true",
	False:         "false",
	Null:          "null",
}

func (t TokenType) String() string {
	if int(t) < 0 || int(t) >= len(tokenNames) {
		return "invalid"
	}
	return tokenNames[t]
}

// Token is a single lexical token.
type Token struct {
	Type  TokenType
	Value string // decoded string, raw number text, or literal spelling

	// Bare is set for String tokens read from an unquoted word.
	Bare bool
}

type literal struct {
	text string
	typ  TokenType
}

var literals = [...]literal{
	{"true", True},
	{"false", False},
	{"null", Null},
}

// Tokenizer is a forward-only lexer over an immutable string. It never fails:
// malformed input is skipped or folded into the closest token type, and
// values truncated by the end of input come back as partial tokens.
type Tokenizer struct {
	data string
	pos  int
}

// NewTokenizer creates a tokenizer positioned at the start of s.
func NewTokenizer(s string) *Tokenizer {
	return &Tokenizer{data: s}
}

// Offset returns the byte offset of the next unread byte.
func (t *Tokenizer) Offset() int { return t.pos }

// Next returns the next token, or false once the input is exhausted.
// Every call either consumes at least one byte or reports false.
func (t *Tokenizer) Next() (Token, bool) {
	for {
		t.skipWhitespace()
		if t.pos >= len(t.data) {
			return Token{}, false
		}

		ch := t.data[t.pos]
		switch {
		case ch == '{':
			t.pos++
			return Token{Type: LeftBrace, Value: "{"}, true
		case ch == '}':
			t.pos++
			return Token{Type: RightBrace, Value: "}"}, true
		case ch == '[':
			t.pos++
			return Token{Type: LeftBracket, Value: "["}, true
		case ch == ']':
			t.pos++
			return Token{Type: RightBracket, Value: "]"}, true
		case ch == ':':
			t.pos++
			return Token{Type: Colon, Value: ":"}, true
		case ch == ',':
			t.pos++
			return Token{Type: Comma, Value: ","}, true
		case ch == '"':
			return t.scanString(), true
		case ch == '-' || ch == '.' || isDigit(ch):
			return t.scanNumber(), true
		case isWordStart(ch):
			return t.scanWord(), true
		default:
			// Stray byte: drop it and keep going.
			t.pos++
		}
	}
}

// Tokenize returns every token of s.
func Tokenize(s string) []Token {
	var toks []Token
	tz := NewTokenizer(s)
	for {
		tok, ok := tz.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

func (t *Tokenizer) scanString() Token {
	t.pos++ // consume opening '"'

	var sb strings.Builder
	fenced := false
	for t.pos < len(t.data) {
		ch := t.data[t.pos]

		if ch == '`' {
			n := backtickRun(t.data, t.pos)
			sb.WriteString(t.data[t.pos : t.pos+n])
			t.pos += n
			if n == 3 {
				fenced = !fenced
			}
			continue
		}
		if fenced {
			sb.WriteByte(ch)
			t.pos++
			continue
		}

		switch ch {
		case '"':
			t.pos++
			return Token{Type: String, Value: sb.String()}
		case '\\':
			if !t.scanEscape(&sb) {
				return Token{Type: StringPartial, Value: sb.String()}
			}
		default:
			sb.WriteByte(ch)
			t.pos++
		}
	}
	return Token{Type: StringPartial, Value: sb.String()}
}

// scanEscape decodes the escape sequence at t.pos into sb. It reports false
// when the sequence is cut off by the end of input, leaving t.pos at the end.
func (t *Tokenizer) scanEscape(sb *strings.Builder) bool {
	if t.pos+1 >= len(t.data) {
		t.pos = len(t.data)
		return false
	}
	esc := t.data[t.pos+1]
	switch esc {
	case '"', '\\', '/':
		sb.WriteByte(esc)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		return t.scanUnicode(sb)
	default:
		sb.WriteByte('\\')
		sb.WriteByte(esc)
	}
	t.pos += 2
	return true
}

func (t *Tokenizer) scanUnicode(sb *strings.Builder) bool {
	r, ok, truncated := hex4(t.data, t.pos+2)
	if truncated {
		t.pos = len(t.data)
		return false
	}
	if !ok {
		sb.WriteString(`\u`)
		t.pos += 2
		return true
	}
	t.pos += 6

	if utf16.IsSurrogate(r) {
		rest := t.data[t.pos:]
		if len(rest) < 2 && strings.HasPrefix(`\u`, rest) {
			// The low half may still be on its way.
			t.pos = len(t.data)
			return false
		}
		if strings.HasPrefix(rest, `\u`) {
			lo, ok, truncated := hex4(t.data, t.pos+2)
			if truncated {
				t.pos = len(t.data)
				return false
			}
			if dec := utf16.DecodeRune(r, lo); ok && dec != utf8.RuneError {
				sb.WriteRune(dec)
				t.pos += 6
				return true
			}
		}
		r = utf8.RuneError
	}
	sb.WriteRune(r)
	return true
}

func (t *Tokenizer) scanNumber() Token {
	start := t.pos
	for t.pos < len(t.data) && isNumberByte(t.data[t.pos]) {
		t.pos++
	}
	raw := t.data[start:t.pos]
	if t.pos < len(t.data) && isNumberEnd(t.data[t.pos]) {
		return Token{Type: Number, Value: raw}
	}
	return Token{Type: NumberPartial, Value: raw}
}

func (t *Tokenizer) scanWord() Token {
	start := t.pos
	for t.pos < len(t.data) && isWordByte(t.data[t.pos]) {
		t.pos++
	}
	word := mem.S(t.data[start:t.pos])

	for _, lit := range literals {
		if mem.EqualFold(word, mem.S(lit.text)) {
			return Token{Type: lit.typ, Value: lit.text}
		}
	}
	if t.pos >= len(t.data) {
		for _, lit := range literals {
			if mem.HasPrefixFold(mem.S(lit.text), word) {
				return Token{Type: lit.typ, Value: lit.text}
			}
		}
	}
	return Token{Type: String, Value: word.StringCopy(), Bare: true}
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.data) && isSpace(t.data[t.pos]) {
		t.pos++
	}
}

// backtickRun returns the length of the run of backticks starting at i.
func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// hex4 decodes four hex digits at s[i:]. truncated reports that the input
// ended before four digits were seen.
func hex4(s string, i int) (r rune, ok, truncated bool) {
	for k := 0; k < 4; k++ {
		if i+k >= len(s) {
			return 0, false, true
		}
		v, valid := hexValue(s[i+k])
		if !valid {
			return 0, false, false
		}
		r = r<<4 | rune(v)
	}
	return r, true, false
}

func hexValue(ch byte) (byte, bool) {
	switch {
	case isDigit(ch):
		return ch - '0', true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNumberByte(ch byte) bool {
	return isDigit(ch) || ch == 'e' || ch == 'E' || ch == '+' || ch == '-' || ch == '.'
}

func isNumberEnd(ch byte) bool {
	return isSpace(ch) || ch == ',' || ch == '}' || ch == ']'
}

func isWordStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= utf8.RuneSelf
}

func isWordByte(ch byte) bool {
	return isWordStart(ch) || isDigit(ch) || ch == '_'
}
