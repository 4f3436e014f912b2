package accessor

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

// binding copies one source property into one target property
type binding struct {
	name   string
	from   []int
	to     []int
	toType reflect.Type
	direct bool // source is assignable to target
}

func (b binding) apply(src, dst reflect.Value) {
	value := src.FieldByIndex(b.from)
	field := dst.FieldByIndex(b.to)
	if b.direct {
		field.Set(value)
		return
	}
	converted, err := coerce.ChangeType(b.toType, value.Interface())
	if err != nil {
		// unconvertible values leave the target at its default
		return
	}
	field.Set(converted)
}

// Mapper copies properties by exact name from one record type to another
type Mapper struct {
	From     reflect.Type
	To       reflect.Type
	bindings []binding
}

// Fields returns the names of the target properties the mapper writes
func (m *Mapper) Fields() []string {
	names := make([]string, len(m.bindings))
	for i, b := range m.bindings {
		names[i] = b.name
	}
	return names
}

// Map constructs a new target instance from from (a pointer to the source
// record). A nil source maps to a nil target.
func (m *Mapper) Map(from reflect.Value) reflect.Value {
	out := reflect.New(m.To)
	if isNil(from) {
		return reflect.Zero(out.Type())
	}
	m.apply(structValue(from), out.Elem())
	return out
}

// Roll copies onto an existing target instance and returns it
func (m *Mapper) Roll(from, to reflect.Value) reflect.Value {
	if isNil(from) || isNil(to) {
		return to
	}
	m.apply(structValue(from), structValue(to))
	return to
}

func (m *Mapper) apply(src, dst reflect.Value) {
	for _, b := range m.bindings {
		b.apply(src, dst)
	}
}

// compileMapper binds every target property to the source property with
// the same name. When primitiveOnly is set, only primitive-like target
// properties are bound.
func compileMapper(from, to reflect.Type, fromProps, toProps []schema.Property, primitiveOnly bool) *Mapper {
	byName := make(map[string]schema.Property, len(fromProps))
	for _, p := range fromProps {
		byName[p.Name] = p
	}

	m := &Mapper{From: from, To: to}
	for _, target := range toProps {
		if primitiveOnly && !coerce.IsPrimitive(target.Type) {
			continue
		}
		source, ok := byName[target.Name]
		if !ok {
			continue
		}

		direct := source.Type.AssignableTo(target.Type)
		if !direct && !(coerce.IsPrimitive(source.Type) && coerce.IsPrimitive(target.Type)) {
			// no general conversion exists between the two shapes
			continue
		}

		m.bindings = append(m.bindings, binding{
			name:   target.Name,
			from:   source.Index,
			to:     target.Index,
			toType: target.Type,
			direct: direct,
		})
	}
	return m
}

// DictMapper builds a record from a string-keyed map
type DictMapper struct {
	To    reflect.Type
	props []schema.Property
}

// Map constructs a new target instance. Entries are matched to properties
// by exact name and converted to the property type; properties without an
// entry keep their default value. A value that cannot be converted fails
// the whole mapping.
func (m *DictMapper) Map(dict map[string]interface{}) (reflect.Value, error) {
	out := reflect.New(m.To)
	dst := out.Elem()
	for _, p := range m.props {
		converted, ok, err := DictValue(dict, p.Name, p.Type)
		if err != nil {
			return reflect.Value{}, err
		}
		if ok {
			dst.FieldByIndex(p.Index).Set(converted)
		}
	}
	return out, nil
}

// DictValue returns dict[name] converted to t. ok is false for an absent
// or nil entry; an entry that does not convert is an error.
func DictValue(dict map[string]interface{}, name string, t reflect.Type) (reflect.Value, bool, error) {
	value, ok := dict[name]
	if !ok || value == nil {
		return reflect.Value{}, false, nil
	}
	converted, err := coerce.ChangeType(t, value)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("%s: %w", name, err)
	}
	return converted, true, nil
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
