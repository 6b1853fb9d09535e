package jsonrepair_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

type obj = map[string]any
type arr = []any

func num(s string) json.Number { return json.Number(s) }

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("Decode(%q): %v", s, err)
	}
	return v
}

func TestParseValidDocuments(t *testing.T) {
	docs := []string{
		`{}`,
		`[]`,
		`{"a": 1, "b": [true, false, null], "c": {"d": "e"}}`,
		`[1, -2.5, 3e10, "x", {"y": []}]`,
		`{"text": "line\nbreak \"quoted\" café 😀"}`,
		"  \n{\"padded\": true}\n  ",
		`{"big": 12345678901234567890}`,
		`"a["`,
		`"list ["`,
		`"}{"`,
		` "ends with ]" `,
	}
	for _, doc := range docs {
		want := decode(t, doc)
		if diff := cmp.Diff(want, jsonrepair.Parse(doc)); diff != "" {
			t.Errorf("Parse(%#q): (-want, +got)\n%s", doc, diff)
		}
		if _, rep := jsonrepair.ParseWithReport(doc); rep.Step != jsonrepair.StepNative {
			t.Errorf("ParseWithReport(%#q).Step = %v, want native", doc, rep.Step)
		}
	}
}

func TestParseWithReport(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
		step  jsonrepair.Step
	}{
		{"prose before", `Sure! {"a": 1}`, obj{"a": num("1")}, jsonrepair.StepNative},
		{"open brackets", `{"a": [1, 2`, obj{"a": arr{num("1"), num("2")}}, jsonrepair.StepRepaired},
		{"open string", `{"a": "b`, obj{"a": "b"}, jsonrepair.StepRepaired},
		{"dangling backslash", `{"a": "b\`, obj{"a": "b"}, jsonrepair.StepRepaired},
		{"trailing comma", `{"a": 1,}`, obj{"a": num("1")}, jsonrepair.StepRepaired},
		{"trailing comma in array", `[1, 2, `, arr{num("1"), num("2")}, jsonrepair.StepRepaired},
		{"nested closers in order", `{"a": [{"b": [1`, obj{"a": arr{obj{"b": arr{num("1")}}}}, jsonrepair.StepRepaired},
		{"brace inside string", `{"a": "x}{`, obj{"a": "x}{"}, jsonrepair.StepRepaired},
		{"partial literal", `{"a": tr`, obj{"a": true}, jsonrepair.StepLenient},
		{"dangling key", `{"a": 1, "b`, obj{"a": num("1")}, jsonrepair.StepLenient},
		{"prose after", `{"a": 1} hope that helps`, obj{"a": num("1")}, jsonrepair.StepLenient},
		{"bare scalar", `42`, num("42"), jsonrepair.StepNative},
		{"empty", ``, nil, jsonrepair.StepNone},
		{"no value", `!!!`, nil, jsonrepair.StepNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rep := jsonrepair.ParseWithReport(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value: (-want, +got)\n%s", diff)
			}
			if rep.Step != tt.step {
				t.Errorf("step = %v, want %v (errors: %v)", rep.Step, tt.step, rep.Errors)
			}
			if int(rep.Step)-1 != len(rep.Errors) && rep.Step != jsonrepair.StepNone {
				t.Errorf("step %v recorded %d earlier errors", rep.Step, len(rep.Errors))
			}
		})
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"b": 1, "a": [1,`, `{"a":[1],"b":1}`},
		{`[{"x": "y`, `[{"x":"y"}]`},
		{`{"n": 1.`, `{"n":1}`},
		{`{"a": nul`, `{"a":null}`},
	}
	for _, tt := range tests {
		got, err := jsonrepair.Repair(tt.input)
		if err != nil {
			t.Errorf("Repair(%#q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Repair(%#q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := jsonrepair.Repair("   "); err == nil {
		t.Error("Repair of blank text: expected an error")
	}
}

func TestRepairPrefixesAreStrictJSON(t *testing.T) {
	doc := `Here: {"user": {"name": "Ann \"A\"", "tags": ["a", "b"]}, "n": [1, 2.5, -3e2], "ok": true}`
	for i := 0; i <= len(doc); i++ {
		out, err := jsonrepair.Repair(doc[:i])
		if err != nil {
			continue
		}
		if !json.Valid([]byte(out)) {
			t.Fatalf("Repair(%q) = %q, not valid JSON", doc[:i], out)
		}
	}
}

func TestPending(t *testing.T) {
	p := jsonrepair.Pending(`Here: {"name": "Ada", "steps": [{"text": "bu`)
	if diff := cmp.Diff([]string{"", "steps", "steps[0]", "steps[0].text"}, p.List()); diff != "" {
		t.Errorf("List: (-want, +got)\n%s", diff)
	}
	if !p.Has("steps[0].text") || p.Has("name") {
		t.Errorf("Has: got %v", p.List())
	}
	if n := jsonrepair.Pending(`{"done": true}`).Len(); n != 0 {
		t.Errorf("complete document: Len = %d, want 0", n)
	}
}
