package entity

import (
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/accessor"
	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/query"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
	"github.com/conduit-lang/recordkit/internal/orm/tracking"
)

// Records binds the record operations of type T to an engine
type Records[T any] struct {
	engine *Engine
	typ    reflect.Type
}

// For returns the operations of record type T on engine e
func For[T any](e *Engine) Records[T] {
	return Records[T]{engine: e, typ: typeOf[T]()}
}

// Check resolves the key schema of T and returns the failure, if any
func (r Records[T]) Check() error {
	_, err := r.engine.access.Keys(r.typ)
	return err
}

// Schema returns the key schema of T
func (r Records[T]) Schema() (*schema.KeySchema, error) {
	return r.engine.resolver.Resolve(r.typ)
}

// Register records T under name for introspection
func (r Records[T]) Register(name string) error {
	return r.engine.names.Register(name, r.typ)
}

func (r Records[T]) keys() *accessor.KeyFuncs {
	kf, err := r.engine.access.Keys(r.typ)
	if err != nil {
		panic(err)
	}
	return kf
}

// Key returns the key values of e in key order, or nil for a nil entity
func (r Records[T]) Key(e *T) []interface{} {
	kf := r.keys()
	if e == nil {
		return nil
	}
	return kf.GetKey(reflect.ValueOf(e))
}

// Identity returns a new instance carrying only the key of e
func (r Records[T]) Identity(e *T) *T {
	kf := r.keys()
	if e == nil {
		return nil
	}
	return kf.Identity(reflect.ValueOf(e)).Interface().(*T)
}

// KeyEquals reports whether the key of e equals key after coercion. A nil
// entity, a key of the wrong length or an unconvertible value never match.
func (r Records[T]) KeyEquals(e *T, key ...interface{}) bool {
	kf := r.keys()
	if e == nil {
		return false
	}
	return kf.KeyEquals(reflect.ValueOf(e), key)
}

// FillKey writes key into the key properties of e. Nothing is written
// when any value fails to convert.
func (r Records[T]) FillKey(e *T, key ...interface{}) error {
	kf := r.keys()
	if e == nil {
		return accessor.ErrNilEntity
	}
	return kf.FillKey(key, reflect.ValueOf(e))
}

// FromKey returns a new instance with only its key populated
func (r Records[T]) FromKey(key ...interface{}) (*T, error) {
	v, err := r.keys().InitFromKey(key)
	if err != nil {
		return nil, err
	}
	return v.Interface().(*T), nil
}

// Find returns the first non-nil item whose key equals key, or nil
func (r Records[T]) Find(items []*T, key ...interface{}) *T {
	kf := r.keys()
	if len(key) != kf.Schema.Len() {
		return nil
	}
	for _, item := range items {
		if item != nil && kf.KeyEquals(reflect.ValueOf(item), key) {
			return item
		}
	}
	return nil
}

// Exists reports whether any item has the given key
func (r Records[T]) Exists(items []*T, key ...interface{}) bool {
	return r.Find(items, key...) != nil
}

// Predicate returns the WHERE predicate selecting the record with key
func (r Records[T]) Predicate(key ...interface{}) (*query.PredicateGroup, error) {
	return query.KeyPredicate(r.keys().Schema, key...)
}

// PredicateAny returns the WHERE predicate selecting every T whose key is
// one of keys. No keys select nothing.
func (r Records[T]) PredicateAny(keys ...[]interface{}) (*query.PredicateGroup, error) {
	return query.KeysPredicate(r.keys().Schema, keys...)
}

// SelectByKey renders the SELECT loading the T with key from table, with
// placeholders starting at $1. With no columns the columns of the
// primitive properties of T are selected in declaration order.
func (r Records[T]) SelectByKey(table string, columns []string, key ...interface{}) (string, []interface{}, error) {
	kf := r.keys()
	if len(columns) == 0 {
		props, err := r.engine.resolver.Properties(r.typ)
		if err != nil {
			return "", nil, err
		}
		for _, p := range props {
			if coerce.IsPrimitive(p.Type) {
				columns = append(columns, p.Column)
			}
		}
	}
	return query.SelectByKey(table, columns, kf.Schema, key...)
}

// MapDict builds a T from a map keyed by property name
func (r Records[T]) MapDict(dict map[string]interface{}) (*T, error) {
	m, err := r.engine.access.DictMapper(r.typ)
	if err != nil {
		return nil, err
	}
	v, err := m.Map(dict)
	if err != nil {
		return nil, err
	}
	return v.Interface().(*T), nil
}

// ClearByType resets every property declared as target in the graph of e
func (r Records[T]) ClearByType(e *T, target reflect.Type) error {
	return r.engine.walker.ClearByType(e, target)
}

// StructEquals compares two instances on props and then extra. Unknown
// property names panic.
func (r Records[T]) StructEquals(oldItem, newItem *T, props []string, extra func(a, b *T) bool) bool {
	eq, err := r.engine.compare.StructEquals(oldItem, newItem, props, adaptExtra(extra))
	if err != nil {
		panic(err)
	}
	return eq
}

// CollectionEquals compares two sequences as unordered multisets on props
// and then extra, pairing items greedily. Unknown property names panic.
func (r Records[T]) CollectionEquals(oldItems, newItems []*T, props []string, extra func(a, b *T) bool) bool {
	eq, err := r.engine.compare.CollectionEquals(oldItems, newItems, props, adaptExtra(extra))
	if err != nil {
		panic(err)
	}
	return eq
}

// Track returns the primitive-like field changes between original and current
func (r Records[T]) Track(original, current *T) (*tracking.ChangeTracker, error) {
	if original == nil || current == nil {
		return nil, accessor.ErrNilEntity
	}
	return r.engine.compare.Track(original, current)
}

func adaptExtra[T any](extra func(a, b *T) bool) tracking.ExtraFunc {
	if extra == nil {
		return nil
	}
	return func(a, b interface{}) bool {
		return extra(a.(*T), b.(*T))
	}
}
