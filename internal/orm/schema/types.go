// Package schema resolves the identity key of record types.
//
// A record type is a Go struct. Its properties are the exported fields,
// including fields promoted through embedded structs, in declaration order.
// The key is discovered once per type and cached for the lifetime of the
// Resolver:
//
//  1. an explicit declaration (Resolver.Register or the KeyDeclarer interface)
//  2. fields tagged `orm:"key"`, ordered by `order=N`
//  3. the same tags on a metadata companion (the MetadataCompanion interface)
//  4. a single field named "id", compared case-insensitively
//
// A type for which none of these yields a key is a definition defect and
// resolves to a *SchemaError.
package schema

import (
	"reflect"
	"strings"
)

// KeyDeclarer is implemented by record types that declare their ordered key
// field names explicitly instead of through tags
type KeyDeclarer interface {
	EntityKey() []string
}

// MetadataCompanion is implemented by record types whose key annotations
// live on a separate struct. The returned value's fields are matched to the
// record's fields by name.
type MetadataCompanion interface {
	EntityMetadata() interface{}
}

// KeySource tells how a key schema was discovered
type KeySource int

const (
	SourceDeclared KeySource = iota
	SourceTagged
	SourceCompanion
	SourceFallback
)

// String returns the string representation of the source
func (s KeySource) String() string {
	switch s {
	case SourceDeclared:
		return "declared"
	case SourceTagged:
		return "tagged"
	case SourceCompanion:
		return "companion"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Property is an exported field of a record type
type Property struct {
	Name   string
	Type   reflect.Type
	Index  []int  // index path for reflect.Value.FieldByIndex
	Column string // storage column name
	Order  int    // column order; 0 when not given
	Key    bool
}

// Value returns the property of the struct value v
func (p Property) Value(v reflect.Value) reflect.Value {
	return v.FieldByIndex(p.Index)
}

// KeySchema is the ordered list of key properties of a record type.
// It is immutable once resolved.
type KeySchema struct {
	Type   reflect.Type
	Keys   []Property
	Source KeySource
}

// Len returns the number of key properties
func (s *KeySchema) Len() int {
	return len(s.Keys)
}

// Names returns the key property names in key order
func (s *KeySchema) Names() []string {
	names := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		names[i] = k.Name
	}
	return names
}

// Columns returns the key column names in key order
func (s *KeySchema) Columns() []string {
	columns := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		columns[i] = k.Column
	}
	return columns
}

// String returns a compact description such as "Order(ID)"
func (s *KeySchema) String() string {
	return s.Type.Name() + "(" + strings.Join(s.Names(), ", ") + ")"
}

// Options controls tag names and the fallback key name
type Options struct {
	Tag         string // struct tag carrying key and order
	ColumnTag   string // struct tag carrying the column name
	FallbackKey string // field name used when nothing is tagged
}

// DefaultOptions returns the default resolver options
func DefaultOptions() Options {
	return Options{
		Tag:         "orm",
		ColumnTag:   "db",
		FallbackKey: "id",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Tag == "" {
		o.Tag = def.Tag
	}
	if o.ColumnTag == "" {
		o.ColumnTag = def.ColumnTag
	}
	if o.FallbackKey == "" {
		o.FallbackKey = def.FallbackKey
	}
	return o
}
