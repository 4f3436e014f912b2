package tracking

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/graph"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

var (
	// ErrUnknownProperty is returned when a property name does not exist on the record type
	ErrUnknownProperty = errors.New("unknown property")

	// ErrNotSequence is returned when a collection comparison is given something other than a slice or array
	ErrNotSequence = errors.New("not a slice or array")
)

// ExtraFunc is an additional comparison applied after the selected properties matched
type ExtraFunc func(oldItem, newItem interface{}) bool

// ValueEquals reports whether a and b are equal. Two null-equivalent values
// are equal. Otherwise the values are equal when they are structurally
// equal, after dereferencing pointers, or when an Equal method on either
// side accepts the other.
func ValueEquals(a, b interface{}) bool {
	an, bn := isNull(a), isNull(b)
	if an || bn {
		return an && bn
	}
	if reflect.DeepEqual(a, b) {
		return true
	}

	av, bv := indirect(reflect.ValueOf(a)), indirect(reflect.ValueOf(b))
	if av.Type() == bv.Type() && av.CanInterface() && bv.CanInterface() &&
		reflect.DeepEqual(av.Interface(), bv.Interface()) {
		return true
	}
	return equalMethod(av, bv) || equalMethod(bv, av)
}

// Comparer compares records over caller-selected properties
type Comparer struct {
	walker *graph.Walker
}

// NewComparer creates a comparer that reads records through walker
func NewComparer(walker *graph.Walker) *Comparer {
	return &Comparer{walker: walker}
}

// StructEquals reports whether oldItem and newItem are equal on every
// named property and, when extra is given, whether extra agrees. Two nil
// items are equal and a nil item never equals a non-nil one.
func (c *Comparer) StructEquals(oldItem, newItem interface{}, props []string, extra ExtraFunc) (bool, error) {
	on, nn := isNull(oldItem), isNull(newItem)
	if on || nn {
		return on && nn, nil
	}

	ov, nv := indirect(reflect.ValueOf(oldItem)), indirect(reflect.ValueOf(newItem))
	if ov.Type() != nv.Type() {
		return false, fmt.Errorf("comparing %s with %s: %w", ov.Type(), nv.Type(), schema.ErrNotRecord)
	}

	selected, err := c.selection(ov.Type(), props)
	if err != nil {
		return false, err
	}
	return structEquals(oldItem, newItem, ov, nv, selected, extra), nil
}

// CollectionEquals reports whether two sequences of records have the same
// length and every old item can be paired with a distinct new item that
// is equal under StructEquals. Pairing is greedy: each old item takes the
// first remaining new item it matches. With no properties selected any two
// sequences of the same length are equal.
func (c *Comparer) CollectionEquals(oldItems, newItems interface{}, props []string, extra ExtraFunc) (bool, error) {
	ov, err := sequence(oldItems)
	if err != nil {
		return false, err
	}
	nv, err := sequence(newItems)
	if err != nil {
		return false, err
	}

	if ov.Len() != nv.Len() {
		return false, nil
	}
	if len(props) == 0 || ov.Len() == 0 {
		return true, nil
	}

	selected, err := c.selection(ov.Type().Elem(), props)
	if err != nil {
		return false, err
	}

	remaining := make([]reflect.Value, nv.Len())
	for i := range remaining {
		remaining[i] = nv.Index(i)
	}

	for i := 0; i < ov.Len(); i++ {
		oldItem := ov.Index(i)
		match := -1
		for j, newItem := range remaining {
			if itemEquals(oldItem, newItem, selected, extra) {
				match = j
				break
			}
		}
		if match < 0 {
			return false, nil
		}
		remaining = append(remaining[:match], remaining[match+1:]...)
	}

	return true, nil
}

func (c *Comparer) selection(t reflect.Type, names []string) ([]schema.Property, error) {
	resolver := c.walker.Resolver()
	selected := make([]schema.Property, 0, len(names))
	for _, name := range names {
		p, ok := resolver.Property(t, name)
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", t, name, ErrUnknownProperty)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

func itemEquals(oldItem, newItem reflect.Value, props []schema.Property, extra ExtraFunc) bool {
	oi, ni := oldItem.Interface(), newItem.Interface()
	on, nn := isNull(oi), isNull(ni)
	if on || nn {
		return on && nn
	}
	return structEquals(oi, ni, indirect(oldItem), indirect(newItem), props, extra)
}

func structEquals(oldItem, newItem interface{}, ov, nv reflect.Value, props []schema.Property, extra ExtraFunc) bool {
	for _, p := range props {
		if !ValueEquals(p.Value(ov).Interface(), p.Value(nv).Interface()) {
			return false
		}
	}
	if extra != nil {
		return extra(oldItem, newItem)
	}
	return true
}

func sequence(items interface{}) (reflect.Value, error) {
	if items == nil {
		return reflect.ValueOf([]interface{}(nil)), nil
	}
	v := indirect(reflect.ValueOf(items))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v, nil
	case reflect.Ptr:
		// nil pointer to a slice
		if v.Type().Elem().Kind() == reflect.Slice {
			return reflect.Zero(v.Type().Elem()), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%T: %w", items, ErrNotSequence)
}

func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func indirect(v reflect.Value) reflect.Value {
	for (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// equalMethod calls a.Equal(b) when a has a single-argument Equal method accepting b
func equalMethod(a, b reflect.Value) bool {
	m := a.MethodByName("Equal")
	if !m.IsValid() {
		return false
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return false
	}
	if !b.Type().AssignableTo(mt.In(0)) {
		return false
	}
	return m.Call([]reflect.Value{b})[0].Bool()
}
