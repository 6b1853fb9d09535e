package partialjson

import "strconv"

// JoinPath joins a JSON path slice into a dot-separated string.
// Array indices like "[0]" attach without a dot.
func JoinPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	result := path[0]
	for i := 1; i < len(path); i++ {
		if len(path[i]) > 0 && path[i][0] == '[' {
			result += path[i]
		} else {
			result += "." + path[i]
		}
	}
	return result
}

// Incomplete tokenizes s and returns the joined paths of the values that
// were still arriving when s ended: truncated strings and numbers, and the
// containers closed only because input ran out. Paths are relative to the
// root container; text outside it contributes nothing.
func Incomplete(s string) map[string]bool {
	var p Parser
	tz := NewTokenizer(s)
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		p.Consume(tok)
	}
	p.Finish()
	return p.Incomplete()
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// childPath returns the path the next value attached to the open frame will
// have. It is false at the top level and for a value in key position.
func (p *Parser) childPath() ([]string, bool) {
	switch f := p.top().(type) {
	case *objectFrame:
		if !f.hasPending {
			return nil, false
		}
		return append(append([]string(nil), f.path...), f.pendingKey), true
	case *arrayFrame:
		return append(append([]string(nil), f.path...), indexSegment(len(f.values))), true
	}
	return nil, false
}

func (p *Parser) markIncomplete(path []string) {
	if p.incomplete == nil {
		p.incomplete = make(map[string]bool)
	}
	p.incomplete[JoinPath(path)] = true
}

// Incomplete returns the paths recorded so far. Frames still open are only
// recorded by Finish.
func (p *Parser) Incomplete() map[string]bool {
	return p.incomplete
}
