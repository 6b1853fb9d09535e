package partialjson_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/deepankarm/partialstream/pkg/internal/partialjson"
)

type obj = map[string]any
type arr = []any

func num(s string) json.Number { return json.Number(s) }

func mustParse(t *testing.T, input string) any {
	t.Helper()
	v, ok := partialjson.Parse(input)
	if !ok {
		t.Fatalf("Parse(%q): no value", input)
	}
	return v
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"complete", `{"name": "John", "age": 30}`, obj{"name": "John", "age": num("30")}},
		{"truncated string", `{"name": "Jo`, obj{"name": "Jo"}},
		{"truncated after colon", `{"name": "John", "age":`, obj{"name": "John"}},
		{"truncated key", `{"name": "John", "ag`, obj{"name": "John"}},
		{"truncated after comma", `{"name": "John",`, obj{"name": "John"}},
		{"truncated array", `{"ids": [1, 2,`, obj{"ids": arr{num("1"), num("2")}}},
		{"truncated nested object",
			`{"user": {"name": "John", "address": {"city": "NY`,
			obj{"user": obj{"name": "John", "address": obj{"city": "NY"}}}},
		{"truncated array of objects",
			`{"tasks": [{"id": 1}, {"id": 2, "title": "Te`,
			obj{"tasks": arr{obj{"id": num("1")}, obj{"id": num("2"), "title": "Te"}}}},
		{"empty object", `{}`, obj{}},
		{"empty array", `[]`, arr{}},
		{"open array", `[`, arr{}},
		{"nested arrays", `[[1, [2]], [`, arr{arr{num("1"), arr{num("2")}}, arr{}}},
		{"mixed array", `["a", 1, true, null, {"b": false}]`,
			arr{"a", num("1"), true, nil, obj{"b": false}}},

		// Literals
		{"incomplete true", `{"flag": tr`, obj{"flag": true}},
		{"incomplete false", `{"flag": f`, obj{"flag": false}},
		{"incomplete null", `{"v": nu`, obj{"v": nil}},
		{"uppercase literals", `{"a": TRUE, "b": False, "c": NULL}`, obj{"a": true, "b": false, "c": nil}},

		// Numbers
		{"negative", `{"n": -42}`, obj{"n": num("-42")}},
		{"exponent", `{"n": 2.5e-3}`, obj{"n": num("2.5e-3")}},
		{"after decimal point", `{"n": 1.`, obj{"n": num("1")}},
		{"after minus", `{"n": -`, obj{"n": nil}},
		{"after exponent", `{"n": 1e`, obj{"n": num("1")}},
		{"after exponent sign", `{"n": 1.5e-`, obj{"n": num("1.5")}},
		{"garbage number", `[1.2.3, --1]`, arr{num("1.2"), nil}},

		// Strings
		{"escapes", `{"text": "Say \"hi\"\n\tC:\\path"}`, obj{"text": "Say \"hi\"\n\tC:\\path"}},
		{"unicode escape", `{"text": "caf\u00e9"}`, obj{"text": "café"}},
		{"surrogate pair", `{"text": "\ud83d\ude00"}`, obj{"text": "😀"}},
		{"incomplete unicode escape", `{"text": "x\u00`, obj{"text": "x"}},
		{"incomplete escape", `{"text": "Hello\`, obj{"text": "Hello"}},
		{"fenced code in string",
			"{\"code\": \"```go\nfmt.Println(\"hi\")\n```\"}",
			obj{"code": "```go\nfmt.Println(\"hi\")\n```"}},

		// Tolerance
		{"unquoted keys and values", `{name: "x", ok: yes}`, obj{"name": "x", "ok": "yes"}},
		{"non-string keys", `{1: "a", true: "b", null: "c"}`, obj{"1": "a", "true": "b", "null": "c"}},
		{"duplicate keys", `{"a": 1, "a": 2}`, obj{"a": num("2")}},
		{"mismatched closer", `{"a": [1, 2}`, obj{"a": arr{num("1"), num("2")}}},
		{"stray closers", `]}{"a": 1}`, obj{"a": num("1")}},
		{"missing commas", `{"a": 1 "b": 2}`, obj{"a": num("1"), "b": num("2")}},
		{"surrounding prose", `Here you go: {"a": 1} thanks`, obj{"a": num("1")}},
		{"trailing commas", `{"a": [1, 2,], "b": 3,}`, obj{"a": arr{num("1"), num("2")}, "b": num("3")}},

		// Roots
		{"root string", `"hello"`, "hello"},
		{"root partial string", `"hel`, "hel"},
		{"root number", `42`, num("42")},
		{"root boolean", `true`, true},
		{"root null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%#q): (-want, +got)\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "#$%"} {
		if v, ok := partialjson.Parse(input); ok {
			t.Errorf("Parse(%q) = %v, want no value", input, v)
		}
	}
}

func TestStrayWordAfterPartialNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		// Dropped: the word would otherwise become a new key.
		{"object value", `{"n": 12abc, "m": 3}`, obj{"n": num("12"), "m": num("3")}},
		// Kept: arrays take every value.
		{"array element", `[12abc]`, arr{num("12"), "abc"}},
		// Kept: a pending key is waiting for this word as its value.
		{"pending key", `{12abc: 1}`, obj{"12": "abc"}},
		// Kept: the previous number was complete.
		{"complete number", `{"n": 12 abc: 1}`, obj{"n": num("12"), "abc": num("1")}},
		// Kept: quoted strings are never dropped.
		{"quoted string", `{"n": 12"abc": 1}`, obj{"n": num("12"), "abc": num("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%#q): (-want, +got)\n%s", tt.input, diff)
			}
		})
	}
}

// keyPaths lists every object key path in v, e.g. "user.tags".
func keyPaths(v any, prefix string, out map[string]bool) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			p := prefix + "." + k
			out[p] = true
			keyPaths(child, p, out)
		}
	case []any:
		for i, child := range v {
			keyPaths(child, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	}
}

func TestParsePrefixesAreMonotonic(t *testing.T) {
	doc := `{"user": {"name": "John", "tags": ["a", "b"], "age": 30, "ok": true, "none": null},` +
		` "list": [1, 2.5, -3e2, {"deep": [{"x": "y"}]}], "done": false}`

	prev := map[string]bool{}
	for i := 0; i <= len(doc); i++ {
		v, _ := partialjson.Parse(doc[:i])
		cur := map[string]bool{}
		keyPaths(v, "", cur)
		for p := range prev {
			if !cur[p] {
				var keys []string
				for k := range cur {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				t.Fatalf("prefix %d (%q): key %q disappeared; have %v", i, doc[:i], p, keys)
			}
		}
		prev = cur
	}

	var want any
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&want); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(want, mustParse(t, doc)); diff != "" {
		t.Errorf("full document: (-want, +got)\n%s", diff)
	}
}
