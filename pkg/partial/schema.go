package partial

import (
	"fmt"
	"maps"
	"strings"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Schemer is implemented by targets that can describe their JSON shape, for
// example to hand it to an LLM as a structured-output schema.
type Schemer interface {
	Schema() *jsonschema.Schema
}

var reflector = &jsonschema.Reflector{
	AllowAdditionalProperties:  false,
	RequiredFromJSONSchemaTags: true,
}

// Schema reflects the JSON schema of T.
func (t *StructTarget[T]) Schema() *jsonschema.Schema {
	var zero T
	return reflector.Reflect(zero)
}

// Schema describes a free-form object.
func (t *MapTarget) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

// FlattenSchema inlines the root definition of s, which reflection emits as
// a $ref into $defs. LLM APIs expect the root object at the top level.
func FlattenSchema(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	ref, ok := m["$ref"].(string)
	if !ok {
		return m, nil
	}
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok {
		return nil, fmt.Errorf("unexpected $ref format: %s", ref)
	}
	defs, ok := m["$defs"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("$defs not found in schema")
	}
	root, ok := defs[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("root definition %s not found in $defs", name)
	}

	out := make(map[string]any, len(root)+1)
	maps.Copy(out, root)
	if len(defs) > 1 {
		out["$defs"] = defs
	}
	return out, nil
}
