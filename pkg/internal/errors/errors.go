// Package errors defines the error types shared by the assembly pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the assembly step that failed.
type Stage string

// Pipeline stages, in execution order.
const (
	StageValidate    Stage = "validate"
	StageDeserialize Stage = "deserialize"
	StageTransform   Stage = "transform"
	StageEncode      Stage = "encode"
)

// StageError tags an error with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Wrap tags err with stage. A nil err stays nil.
func Wrap(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err's chain, or "".
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ErrorType is an enum for validation error categories.
type ErrorType string

const (
	ErrorTypeConstraint ErrorType = "constraint"  // field constraint violation (min, max, oneof, ...)
	ErrorTypeMismatch   ErrorType = "type_error"  // value has the wrong JSON type for the field
	ErrorTypeJSONDecode ErrorType = "json_decode" // text is not a JSON document
	ErrorTypeInternal   ErrorType = "internal"    // misconfigured target
)

// ValidationError is one field-level problem in a partial document.
type ValidationError struct {
	Loc     []string  // path to the field, e.g. ["steps", "0", "title"]
	Message string    // human-readable message
	Type    ErrorType // category
}

func (e ValidationError) Error() string {
	if len(e.Loc) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Loc, "."), e.Message)
}

// ValidationErrors collects every problem found in one document.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	switch len(es) {
	case 0:
		return "validation errors: (none)"
	case 1:
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation errors (%d): %s", len(es), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (es ValidationErrors) Unwrap() []error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errs
}

// Has reports whether any error is of type t.
func (es ValidationErrors) Has(t ErrorType) bool {
	for _, e := range es {
		if e.Type == t {
			return true
		}
	}
	return false
}
