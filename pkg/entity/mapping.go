package entity

import (
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/accessor"
)

// Mapping binds by-name copying from record type From into To to an engine
type Mapping[From, To any] struct {
	engine *Engine
	from   reflect.Type
	to     reflect.Type
}

// MappingFor returns the mapping from From into To on engine e
func MappingFor[From, To any](e *Engine) Mapping[From, To] {
	return Mapping[From, To]{engine: e, from: typeOf[From](), to: typeOf[To]()}
}

func (m Mapping[From, To]) mapper() *accessor.Mapper {
	mp, err := m.engine.access.Mapper(m.from, m.to)
	if err != nil {
		panic(err)
	}
	return mp
}

// Fields returns the target properties the mapping writes
func (m Mapping[From, To]) Fields() []string {
	return m.mapper().Fields()
}

// Map constructs a new To from the properties of from with the same
// names. Target properties without a source keep their zero value. A nil
// source maps to nil.
func (m Mapping[From, To]) Map(from *From) *To {
	mp := m.mapper()
	if from == nil {
		return nil
	}
	return mp.Map(reflect.ValueOf(from)).Interface().(*To)
}

// MapSlice maps every item, keeping nil items as nil
func (m Mapping[From, To]) MapSlice(items []*From) []*To {
	if items == nil {
		return nil
	}
	mp := m.mapper()
	out := make([]*To, len(items))
	for i, item := range items {
		if item != nil {
			out[i] = mp.Map(reflect.ValueOf(item)).Interface().(*To)
		}
	}
	return out
}

// Rolled copies the primitive-like properties of from onto the existing
// to, by name, and returns to. Complex and collection properties are left
// alone.
func (m Mapping[From, To]) Rolled(from *From, to *To) *To {
	roller, err := m.engine.access.Roller(m.from, m.to)
	if err != nil {
		panic(err)
	}
	if from == nil || to == nil {
		return to
	}
	roller.Roll(reflect.ValueOf(from), reflect.ValueOf(to))
	return to
}
