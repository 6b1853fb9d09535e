// Package reflectutil holds reflection helpers shared by the targets.
package reflectutil

import (
	"reflect"
	"strings"
)

// JSONFieldName returns the name a struct field has in JSON: the json tag
// name if present, otherwise the Go field name. Ignored fields yield "".
//
// It has the signature validator.Validate.RegisterTagNameFunc expects.
func JSONFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
