package jsonrepair

import (
	"strings"

	"github.com/deepankarm/partialstream/pkg/internal/partialjson"
)

// Strategy selects which fragments Extract returns.
type Strategy int

const (
	StopOnFirst Strategy = iota // the first fragment only
	StopOnLast                  // the last fragment only
	ParseAll                    // every fragment, in order
)

func (s Strategy) String() string {
	switch s {
	case StopOnFirst:
		return "first"
	case StopOnLast:
		return "last"
	case ParseAll:
		return "all"
	}
	return "unknown"
}

// Fragment is one JSON value found in free text. StartIndex and EndIndex are
// byte offsets into the text; EndIndex is exclusive.
type Fragment struct {
	Value      any
	StartIndex int
	EndIndex   int
}

// Extract finds the JSON objects and arrays embedded in text, such as the
// answer of an LLM wrapped in prose or markdown code fences. A fragment that
// opens inside a fence never extends past the closing fence.
func Extract(text string, strategy Strategy) []Fragment {
	var out []Fragment
	fenced := false
	for i := 0; i < len(text); {
		switch ch := text[i]; {
		case ch == '`':
			n := backtickRun(text, i)
			i += n
			if n >= 3 {
				fenced = !fenced
				if fenced {
					i = skipInfoString(text, i)
				}
			}
			continue
		case ch != '{' && ch != '[':
			i++
			continue
		}

		limit := len(text)
		if fenced {
			if j := indexFence(text, i); j >= 0 {
				limit = j
			}
		}
		end := i + balancedLength(text[i:limit])
		frag := Fragment{Value: Parse(text[i:end]), StartIndex: i, EndIndex: end}

		switch strategy {
		case StopOnFirst:
			return []Fragment{frag}
		case StopOnLast:
			out = append(out[:0], frag)
		default:
			out = append(out, frag)
		}
		i = end
	}
	return out
}

// balancedLength returns the length of the bracket-balanced prefix of s,
// which starts with '{' or '['. An unbalanced s is used whole.
func balancedLength(s string) int {
	depth := 0
	tz := partialjson.NewTokenizer(s)
	for {
		tok, ok := tz.Next()
		if !ok {
			return len(s)
		}
		switch tok.Type {
		case partialjson.LeftBrace, partialjson.LeftBracket:
			depth++
		case partialjson.RightBrace, partialjson.RightBracket:
			depth--
		}
		if depth <= 0 {
			return tz.Offset()
		}
	}
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// skipInfoString skips the language tag after an opening fence, e.g. "json".
func skipInfoString(s string, i int) int {
	for i < len(s) && s[i] != '\n' && s[i] != '{' && s[i] != '[' && s[i] != '`' {
		i++
	}
	return i
}

// indexFence returns the offset of the next fence at or after i, or -1.
func indexFence(s string, i int) int {
	j := strings.Index(s[i:], "```")
	if j < 0 {
		return -1
	}
	return i + j
}
