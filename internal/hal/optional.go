package hal

import "reflect"

// Optional holds zero or one capability. The zero value is absent.
//
// The value is only reachable through Get, so every use site has to deal with
// the absent case.
type Optional[T any] struct {
	v  T
	ok bool
}

// Some wraps v. A nil value yields an absent Optional, including a nil pointer,
// map, slice, func or channel stored in an interface.
func Some[T any](v T) Optional[T] {
	if isNil(v) {
		return Optional[T]{}
	}
	return Optional[T]{v: v, ok: true}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.v, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}
