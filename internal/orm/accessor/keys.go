package accessor

import (
	"reflect"

	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

// KeyFuncs are the key operations compiled for one record type. Entities
// are passed as pointers to the record struct. Every function is pure over
// its arguments and safe for concurrent use.
type KeyFuncs struct {
	Type   reflect.Type
	Schema *schema.KeySchema

	// GetKey reads the key values in key order. Enums are boxed as their
	// underlying integer or string so the result coerces back losslessly.
	GetKey func(entity reflect.Value) []interface{}

	// Identity returns a new instance carrying only the key of entity
	Identity func(entity reflect.Value) reflect.Value

	// KeyEquals reports whether entity's key equals the coerced key values.
	// A wrong arity or an unconvertible value is "not equal".
	KeyEquals func(entity reflect.Value, key []interface{}) bool

	// FillKey writes the coerced key values into entity. Nothing is written
	// unless every value converts.
	FillKey func(key []interface{}, entity reflect.Value) error

	// InitFromKey returns a new instance with only its key populated
	InitFromKey func(key []interface{}) (reflect.Value, error)
}

// keyPart is one compiled key property
type keyPart struct {
	name  string
	typ   reflect.Type
	index []int
	box   func(reflect.Value) interface{}
	equal equalFunc
}

func compileKeyFuncs(ks *schema.KeySchema) *KeyFuncs {
	t := ks.Type
	parts := make([]keyPart, len(ks.Keys))
	for i, p := range ks.Keys {
		parts[i] = keyPart{
			name:  p.Name,
			typ:   p.Type,
			index: p.Index,
			box:   boxFor(p.Type),
			equal: equalFor(p.Type),
		}
	}
	arity := len(parts)

	convert := func(key []interface{}) ([]reflect.Value, error) {
		if len(key) != arity {
			return nil, arityError(arity, len(key))
		}
		values := make([]reflect.Value, arity)
		for i, part := range parts {
			v, err := coerce.Convert(part.typ, key[i])
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	}

	kf := &KeyFuncs{Type: t, Schema: ks}

	kf.GetKey = func(entity reflect.Value) []interface{} {
		v := structValue(entity)
		key := make([]interface{}, arity)
		for i, part := range parts {
			key[i] = part.box(v.FieldByIndex(part.index))
		}
		return key
	}

	kf.Identity = func(entity reflect.Value) reflect.Value {
		src := structValue(entity)
		out := reflect.New(t)
		dst := out.Elem()
		for _, part := range parts {
			dst.FieldByIndex(part.index).Set(src.FieldByIndex(part.index))
		}
		return out
	}

	kf.KeyEquals = func(entity reflect.Value, key []interface{}) bool {
		if len(key) != arity {
			return false
		}
		v := structValue(entity)
		for i, part := range parts {
			want, err := coerce.Convert(part.typ, key[i])
			if err != nil {
				return false
			}
			if !part.equal(v.FieldByIndex(part.index), want) {
				return false
			}
		}
		return true
	}

	kf.FillKey = func(key []interface{}, entity reflect.Value) error {
		values, err := convert(key)
		if err != nil {
			return err
		}
		v := structValue(entity)
		for i, part := range parts {
			v.FieldByIndex(part.index).Set(values[i])
		}
		return nil
	}

	kf.InitFromKey = func(key []interface{}) (reflect.Value, error) {
		values, err := convert(key)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t)
		v := out.Elem()
		for i, part := range parts {
			v.FieldByIndex(part.index).Set(values[i])
		}
		return out, nil
	}

	return kf
}

// boxFor returns how a key property is exposed as an untyped value.
// Nullable keys yield nil or their pointee.
func boxFor(t reflect.Type) func(reflect.Value) interface{} {
	if t.Kind() == reflect.Ptr {
		inner := boxFor(t.Elem())
		return func(v reflect.Value) interface{} {
			if v.IsNil() {
				return nil
			}
			return inner(v.Elem())
		}
	}

	if coerce.IsEnum(t) {
		under := coerce.Underlying(t)
		return func(v reflect.Value) interface{} {
			return v.Convert(under).Interface()
		}
	}

	return func(v reflect.Value) interface{} {
		return v.Interface()
	}
}

// structValue dereferences entity down to its struct value
func structValue(entity reflect.Value) reflect.Value {
	for entity.Kind() == reflect.Ptr || entity.Kind() == reflect.Interface {
		entity = entity.Elem()
	}
	return entity
}
