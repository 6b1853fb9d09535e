package partial

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
)

// ExprTransform is a Transformer defined by an expr-lang expression. The
// expression sees the value as `value`, in its JSON form: objects are maps,
// arrays are slices and numbers are float64. Its result replaces the value.
//
// Example:
//
//	t, err := partial.NewExprTransform(`{"title": upper(value.title), "steps": len(value.steps ?? [])}`)
type ExprTransform struct {
	source  string
	program *vm.Program
}

// NewExprTransform compiles source.
func NewExprTransform(source string) (*ExprTransform, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile transform %q: %w", source, err)
	}
	return &ExprTransform{source: source, program: program}, nil
}

func (t *ExprTransform) String() string { return t.source }

func (t *ExprTransform) Transform(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	out, err := expr.Run(t.program, map[string]any{"value": generic})
	if err != nil {
		return nil, fmt.Errorf("run transform %q: %w", t.source, err)
	}
	return out, nil
}
