// Package graph classifies record properties and walks object graphs.
//
// A property is primitive-like when its declared type (nullable and enum
// stripped) is in the primitive set, a collection when it is a slice,
// array or map, and complex otherwise. Classification only looks at the
// declared type.
package graph

import (
	"errors"
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
	"github.com/conduit-lang/recordkit/internal/orm/typecache"
)

// ErrNotAddressable is returned when a walk is given something it cannot
// mutate in place
var ErrNotAddressable = errors.New("graph walk needs a non-nil pointer to a struct")

// PropertyKind is the structural class of a property
type PropertyKind int

const (
	KindPrimitive PropertyKind = iota
	KindComplex
	KindCollection
)

// String returns the string representation of the kind
func (k PropertyKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindComplex:
		return "complex"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Classify returns the structural class of a declared type
func Classify(t reflect.Type) PropertyKind {
	if coerce.IsPrimitive(t) {
		return KindPrimitive
	}
	switch coerce.Base(t).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return KindCollection
	default:
		return KindComplex
	}
}

// Layout groups the properties of a record type by class
type Layout struct {
	Type       reflect.Type
	Primitive  []schema.Property
	Complex    []schema.Property
	Collection []schema.Property

	// Embedded holds the embedded struct pointers whose promoted fields
	// are not properties of Type; walks descend into them
	Embedded []schema.Property
}

// Kind returns the class of the named property
func (l *Layout) Kind(name string) (PropertyKind, bool) {
	for _, group := range []struct {
		kind  PropertyKind
		props []schema.Property
	}{
		{KindPrimitive, l.Primitive},
		{KindComplex, l.Complex},
		{KindCollection, l.Collection},
	} {
		for _, p := range group.props {
			if p.Name == name {
				return group.kind, true
			}
		}
	}
	return 0, false
}

// Walker walks object graphs using cached layouts
type Walker struct {
	resolver *schema.Resolver
	layouts  *typecache.Cache[reflect.Type, *Layout]
}

// NewWalker creates a walker reading properties through resolver
func NewWalker(resolver *schema.Resolver) *Walker {
	return &Walker{
		resolver: resolver,
		layouts:  typecache.New[reflect.Type, *Layout]("layouts"),
	}
}

// Layout returns the classified properties of record type t
func (w *Walker) Layout(t reflect.Type) (*Layout, error) {
	t = coerce.Base(t)
	return w.layouts.Get(t, func() (*Layout, error) {
		props, err := w.resolver.Properties(t)
		if err != nil {
			return nil, err
		}
		embedded, err := w.resolver.Embedded(t)
		if err != nil {
			return nil, err
		}
		layout := &Layout{Type: t, Embedded: embedded}
		for _, p := range props {
			switch Classify(p.Type) {
			case KindPrimitive:
				layout.Primitive = append(layout.Primitive, p)
			case KindCollection:
				layout.Collection = append(layout.Collection, p)
			default:
				layout.Complex = append(layout.Complex, p)
			}
		}
		return layout, nil
	})
}

// Resolver returns the resolver the walker reads properties through
func (w *Walker) Resolver() *schema.Resolver {
	return w.resolver
}
