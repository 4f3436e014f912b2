package entity

import (
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/accessor"
	"github.com/conduit-lang/recordkit/internal/orm/query"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
	"github.com/conduit-lang/recordkit/internal/orm/tracking"
)

// Check resolves the key schema of T on the default engine
func Check[T any]() error {
	return For[T](Default()).Check()
}

// Schema returns the key schema of T
func Schema[T any]() (*schema.KeySchema, error) {
	return For[T](Default()).Schema()
}

// Register records T under name on the default engine
func Register[T any](name string) error {
	return For[T](Default()).Register(name)
}

// Key returns the key values of e in key order
func Key[T any](e *T) []interface{} {
	return For[T](Default()).Key(e)
}

// Identity returns a new instance carrying only the key of e
func Identity[T any](e *T) *T {
	return For[T](Default()).Identity(e)
}

// KeyEquals reports whether the key of e equals key after coercion
func KeyEquals[T any](e *T, key ...interface{}) bool {
	return For[T](Default()).KeyEquals(e, key...)
}

// FillKey writes key into the key properties of e
func FillKey[T any](e *T, key ...interface{}) error {
	return For[T](Default()).FillKey(e, key...)
}

// FromKey returns a new T with only its key populated
func FromKey[T any](key ...interface{}) (*T, error) {
	return For[T](Default()).FromKey(key...)
}

// Find returns the first item with the given key, or nil
func Find[T any](items []*T, key ...interface{}) *T {
	return For[T](Default()).Find(items, key...)
}

// Exists reports whether any item has the given key
func Exists[T any](items []*T, key ...interface{}) bool {
	return For[T](Default()).Exists(items, key...)
}

// Predicate returns the WHERE predicate selecting the T with key
func Predicate[T any](key ...interface{}) (*query.PredicateGroup, error) {
	return For[T](Default()).Predicate(key...)
}

// PredicateAny returns the WHERE predicate selecting every T whose key is
// one of keys
func PredicateAny[T any](keys ...[]interface{}) (*query.PredicateGroup, error) {
	return For[T](Default()).PredicateAny(keys...)
}

// SelectByKey renders the statement loading the T with key from table
func SelectByKey[T any](table string, columns []string, key ...interface{}) (string, []interface{}, error) {
	return For[T](Default()).SelectByKey(table, columns, key...)
}

// Map constructs a new To from the same-named properties of from
func Map[From, To any](from *From) *To {
	return MappingFor[From, To](Default()).Map(from)
}

// MapSlice maps every item from From into To
func MapSlice[From, To any](items []*From) []*To {
	return MappingFor[From, To](Default()).MapSlice(items)
}

// Rolled copies the primitive-like properties of from onto to
func Rolled[From, To any](from *From, to *To) *To {
	return MappingFor[From, To](Default()).Rolled(from, to)
}

// MapDict builds a T from a map keyed by property name
func MapDict[T any](dict map[string]interface{}) (*T, error) {
	return For[T](Default()).MapDict(dict)
}

// DictValue returns dict[name] converted to V. An absent or nil entry
// yields the zero value; an entry that does not convert is an error.
func DictValue[V any](dict map[string]interface{}, name string) (V, error) {
	var zero V
	v, ok, err := accessor.DictValue(dict, name, typeOf[V]())
	if err != nil || !ok {
		return zero, err
	}
	return v.Interface().(V), nil
}

// ClearByType resets every property declared as V anywhere in the graph
// reachable from obj, e.g. ClearByType[[]byte](order) drops binary
// payloads. obj must be a non-nil pointer to a struct.
func ClearByType[V any](obj interface{}) error {
	return Default().ClearByType(obj, typeOf[V]())
}

// ClearType is ClearByType with the target given as a reflect.Type
func ClearType(obj interface{}, target reflect.Type) error {
	return Default().ClearByType(obj, target)
}

// ValueEquals reports whether two values are equal, treating null
// equivalents as equal and consulting Equal methods on either side
func ValueEquals(a, b interface{}) bool {
	return tracking.ValueEquals(a, b)
}

// StructEquals compares two instances on props and then extra
func StructEquals[T any](oldItem, newItem *T, props []string, extra func(a, b *T) bool) bool {
	return For[T](Default()).StructEquals(oldItem, newItem, props, extra)
}

// CollectionEquals compares two sequences as unordered multisets on props
func CollectionEquals[T any](oldItems, newItems []*T, props []string, extra func(a, b *T) bool) bool {
	return For[T](Default()).CollectionEquals(oldItems, newItems, props, extra)
}

// Track returns the primitive-like field changes between original and current
func Track[T any](original, current *T) (*tracking.ChangeTracker, error) {
	return For[T](Default()).Track(original, current)
}
