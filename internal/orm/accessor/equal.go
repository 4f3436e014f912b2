package accessor

import (
	"reflect"
)

// equalFunc compares two values of the same declared type
type equalFunc func(a, b reflect.Value) bool

// equalFor picks the comparison for a declared type once, at build time.
// Nullable values compare by their pointee; a type with an
// `Equal(T) bool` method (time.Time) uses it.
func equalFor(t reflect.Type) equalFunc {
	if t.Kind() == reflect.Ptr {
		inner := equalFor(t.Elem())
		return func(a, b reflect.Value) bool {
			if a.IsNil() || b.IsNil() {
				return a.IsNil() && b.IsNil()
			}
			return inner(a.Elem(), b.Elem())
		}
	}

	if m, ok := t.MethodByName("Equal"); ok &&
		m.Type.NumIn() == 2 && m.Type.In(1) == t &&
		m.Type.NumOut() == 1 && m.Type.Out(0).Kind() == reflect.Bool {
		return func(a, b reflect.Value) bool {
			return a.MethodByName("Equal").Call([]reflect.Value{b})[0].Bool()
		}
	}

	if t.Comparable() {
		return func(a, b reflect.Value) bool {
			return a.Interface() == b.Interface()
		}
	}

	return func(a, b reflect.Value) bool {
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}
