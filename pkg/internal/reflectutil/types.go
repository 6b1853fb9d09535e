package reflectutil

import "reflect"

// UnwrapValue follows pointers and interfaces down to the underlying value.
// It stops at the first nil.
func UnwrapValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// IsStruct reports whether v, once unwrapped, is a struct.
func IsStruct(v reflect.Value) bool {
	return UnwrapValue(v).Kind() == reflect.Struct
}
