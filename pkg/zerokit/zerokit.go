// Package zerokit helps with zero value related checks.
package zerokit

import "reflect"

// IsZero reports whether the value is the zero value of its type.
func IsZero[T any](v T) bool {
	switch rv := any(v).(type) {
	case nil:
		return true
	case reflect.Value:
		return !rv.IsValid() || rv.IsZero()
	}
	return reflect.ValueOf(&v).Elem().IsZero()
}

// IsNil reports whether the value is nil.
// Non nil-able kinds, such as structs or numbers, are never nil.
func IsNil[T any](v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// IsNilable reports whether T's kind can hold a nil value.
func IsNilable[T any]() bool {
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// Coalesce will return the first non-zero value from the provided values.
func Coalesce[T any](vs ...T) T {
	for _, v := range vs {
		if !IsZero(v) {
			return v
		}
	}
	var zero T
	return zero
}
