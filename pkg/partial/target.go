package partial

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	perrors "github.com/deepankarm/partialstream/pkg/internal/errors"
	"github.com/deepankarm/partialstream/pkg/internal/reflectutil"
	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

// Target turns normalized JSON text into the value a stream emits.
//
// Validate runs on partial documents, so it must accept missing fields and
// only reject what is already wrong.
type Target interface {
	Validate(data []byte) error
	Deserialize(data []byte) (any, error)
	Transform(v any) (any, error)
}

// PendingValidator is implemented by targets that can tell a value still
// being streamed from a wrong one. A constraint failure at a pending path is
// not an error yet: "Ro" may still become "Roger".
type PendingValidator interface {
	ValidatePending(data []byte, pending jsonrepair.Paths) error
}

// Transformer post-processes a deserialized value.
type Transformer interface {
	Transform(v any) (any, error)
}

// TransformFunc adapts a function to Transformer.
type TransformFunc func(v any) (any, error)

func (f TransformFunc) Transform(v any) (any, error) { return f(v) }

// TargetOption configures a StructTarget or MapTarget.
type TargetOption interface {
	apply(*targetConfig)
}

type targetConfig struct {
	transform Transformer
	validate  *validator.Validate
}

type optionFunc func(*targetConfig)

func (f optionFunc) apply(cfg *targetConfig) { f(cfg) }

// WithTransform sets the transform step of a target.
//
// Example:
//
//	target := partial.NewStructTarget[Plan](
//	    partial.WithTransform(partial.TransformFunc(func(v any) (any, error) {
//	        p := v.(Plan)
//	        p.Title = strings.ToUpper(p.Title)
//	        return p, nil
//	    })),
//	)
func WithTransform(t Transformer) TargetOption {
	return optionFunc(func(cfg *targetConfig) { cfg.transform = t })
}

// WithValidator replaces the default validator, e.g. to register custom tags.
func WithValidator(v *validator.Validate) TargetOption {
	return optionFunc(func(cfg *targetConfig) { cfg.validate = v })
}

func newConfig(opts []TargetOption) targetConfig {
	cfg := targetConfig{}
	for _, o := range opts {
		o.apply(&cfg)
	}
	if cfg.validate == nil {
		cfg.validate = validator.New(validator.WithRequiredStructEnabled())
		cfg.validate.RegisterTagNameFunc(reflectutil.JSONFieldName)
	}
	return cfg
}

// StructTarget deserializes into T and checks `validate` struct tags. Fields
// that are still zero are not checked, and with ValidatePending neither are
// values still arriving, so a document that is merely incomplete passes.
type StructTarget[T any] struct {
	cfg targetConfig
}

// NewStructTarget returns a target for T.
func NewStructTarget[T any](opts ...TargetOption) *StructTarget[T] {
	return &StructTarget[T]{cfg: newConfig(opts)}
}

func (t *StructTarget[T]) decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, decodeError(err)
	}
	return v, nil
}

// Validate reports type mismatches and violated constraints on the fields
// present in data.
func (t *StructTarget[T]) Validate(data []byte) error {
	return t.ValidatePending(data, jsonrepair.Paths{})
}

// ValidatePending is Validate without the constraint failures on values
// listed in pending.
func (t *StructTarget[T]) ValidatePending(data []byte, pending jsonrepair.Paths) error {
	v, err := t.decode(data)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(&v).Elem()
	if !reflectutil.IsStruct(rv) {
		return nil
	}
	root := reflectutil.UnwrapValue(rv)
	err = t.cfg.validate.Struct(root.Interface())
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return perrors.ValidationErrors{{Message: err.Error(), Type: perrors.ErrorTypeInternal}}
	}

	var errs perrors.ValidationErrors
	for _, fe := range fieldErrs {
		path := trimRoot(fe.Namespace(), root.Type().Name())
		if isMissing(fe) || pending.Has(path) {
			continue
		}
		errs = append(errs, perrors.ValidationError{
			Loc:     fieldPath(path),
			Message: fmt.Sprintf("failed on %q", fe.ActualTag()),
			Type:    perrors.ErrorTypeConstraint,
		})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Deserialize returns a T decoded from data.
func (t *StructTarget[T]) Deserialize(data []byte) (any, error) {
	return t.decode(data)
}

func (t *StructTarget[T]) Transform(v any) (any, error) {
	return applyTransform(t.cfg.transform, v)
}

// MapTarget accepts any JSON object and emits it as map[string]any.
type MapTarget struct {
	cfg targetConfig
}

// NewMapTarget returns a schema-less object target.
func NewMapTarget(opts ...TargetOption) *MapTarget {
	return &MapTarget{cfg: newConfig(opts)}
}

func (t *MapTarget) decode(data []byte) (map[string]any, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, decodeError(err)
	}
	if m == nil {
		return nil, perrors.ValidationErrors{{Message: "not a JSON object", Type: perrors.ErrorTypeMismatch}}
	}
	return m, nil
}

func (t *MapTarget) Validate(data []byte) error {
	_, err := t.decode(data)
	return err
}

func (t *MapTarget) Deserialize(data []byte) (any, error) {
	return t.decode(data)
}

func (t *MapTarget) Transform(v any) (any, error) {
	return applyTransform(t.cfg.transform, v)
}

func applyTransform(tr Transformer, v any) (any, error) {
	if tr == nil {
		return v, nil
	}
	return tr.Transform(v)
}

func decodeError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		var loc []string
		if te.Field != "" {
			loc = strings.Split(te.Field, ".")
		}
		return perrors.ValidationErrors{{
			Loc:     loc,
			Message: fmt.Sprintf("cannot use %s as %s", te.Value, te.Type),
			Type:    perrors.ErrorTypeMismatch,
		}}
	}
	return perrors.ValidationErrors{{Message: err.Error(), Type: perrors.ErrorTypeJSONDecode}}
}

// isMissing reports a constraint failure on a field the document has not
// provided yet.
func isMissing(fe validator.FieldError) bool {
	if strings.HasPrefix(fe.Tag(), "required") {
		return true
	}
	v := reflect.ValueOf(fe.Value())
	return !v.IsValid() || v.IsZero()
}

// trimRoot drops the root type name validator prefixes to a namespace:
// "Plan.steps[0].text" becomes "steps[0].text".
func trimRoot(ns, root string) string {
	if ns == root {
		return ""
	}
	return strings.TrimPrefix(ns, root+".")
}

// fieldPath splits "steps[0].text" into ["steps", "0", "text"].
func fieldPath(path string) []string {
	if path == "" {
		return nil
	}
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.Split(path, ".")
}
