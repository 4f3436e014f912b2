package graph

import (
	"reflect"
)

// visit identifies an object instance during a walk. The type is part of
// the identity because a struct and its first field share an address.
type visit struct {
	addr uintptr
	typ  reflect.Type
}

// ClearByType resets every property declared with type target, anywhere in
// the graph reachable from obj, to its zero value. Primitive-like
// properties of that type are zeroed, collection properties of that type
// are set to nil, and all other complex values and collection elements
// are walked, as are embedded struct pointers. Each object instance is visited at most once, so cyclic
// graphs terminate. obj must be a non-nil pointer to a struct.
//
// The graph is mutated in place without locking.
func (w *Walker) ClearByType(obj interface{}, target reflect.Type) error {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotAddressable
	}

	root := rv.Elem()
	visited := map[visit]struct{}{
		{addr: rv.Pointer(), typ: root.Type()}: {},
	}
	return w.clearStruct(root, target, visited)
}

func (w *Walker) clearStruct(v reflect.Value, target reflect.Type, visited map[visit]struct{}) error {
	layout, err := w.Layout(v.Type())
	if err != nil {
		return err
	}

	for _, p := range layout.Primitive {
		if p.Type == target {
			field := p.Value(v)
			field.Set(reflect.Zero(p.Type))
		}
	}

	for _, p := range layout.Complex {
		if err := w.walk(p.Value(v), target, visited); err != nil {
			return err
		}
	}

	for _, p := range layout.Embedded {
		if err := w.walk(p.Value(v), target, visited); err != nil {
			return err
		}
	}

	for _, p := range layout.Collection {
		field := p.Value(v)
		if p.Type == target {
			field.Set(reflect.Zero(p.Type))
			continue
		}
		if err := w.walkElements(field, target, visited); err != nil {
			return err
		}
	}

	return nil
}

// walk descends into v when it holds a struct that can be mutated in place
func (w *Walker) walk(v reflect.Value, target reflect.Type, visited map[visit]struct{}) error {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		// struct values boxed in an interface are copies and are left alone
		return w.walk(v.Elem(), target, visited)

	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		elem := v.Elem()
		switch elem.Kind() {
		case reflect.Struct:
			return w.enter(v.Pointer(), elem, target, visited)
		case reflect.Slice, reflect.Array, reflect.Map:
			return w.walkElements(elem, target, visited)
		}
		return nil

	case reflect.Struct:
		if !v.CanAddr() {
			return nil
		}
		return w.enter(v.UnsafeAddr(), v, target, visited)

	case reflect.Slice, reflect.Array, reflect.Map:
		return w.walkElements(v, target, visited)
	}
	return nil
}

func (w *Walker) enter(addr uintptr, v reflect.Value, target reflect.Type, visited map[visit]struct{}) error {
	key := visit{addr: addr, typ: v.Type()}
	if _, seen := visited[key]; seen {
		return nil
	}
	visited[key] = struct{}{}
	return w.clearStruct(v, target, visited)
}

// walkElements walks the non-nil elements of a collection
func (w *Walker) walkElements(v reflect.Value, target reflect.Type, visited map[visit]struct{}) error {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return w.walkElements(v.Elem(), target, visited)

	case reflect.Slice, reflect.Array:
		if !walkable(v.Type().Elem()) {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := w.walk(v.Index(i), target, visited); err != nil {
				return err
			}
		}

	case reflect.Map:
		if v.IsNil() || !walkable(v.Type().Elem()) {
			return nil
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := w.walk(iter.Value(), target, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkable reports whether elements of type t may lead to a record
func walkable(t reflect.Type) bool {
	return Classify(t) != KindPrimitive
}
