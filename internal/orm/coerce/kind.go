package coerce

import (
	"encoding"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a type against the fixed set of scalar kinds that are
// treated as leaf values
type Kind int

const (
	// KindInvalid marks a type outside the primitive set
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindTime
	KindDuration
	KindUUID
	KindEnum // named integer or string type
	KindText // any other encoding.TextUnmarshaler, e.g. a decimal type
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindUUID:
		return "uuid"
	case KindEnum:
		return "enum"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	uuidType            = reflect.TypeOf(uuid.UUID{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// basicTypes maps a scalar reflect.Kind to its predeclared type
var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Uintptr: reflect.TypeOf(uintptr(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
	reflect.String:  reflect.TypeOf(""),
}

// Base strips the nullable (pointer) layers from t
func Base(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Underlying strips nullability and enum naming from t. A named scalar
// type such as `type Status int` yields int; time.Duration is kept as is
// because it is a primitive of its own.
func Underlying(t reflect.Type) reflect.Type {
	t = Base(t)
	if t == nil || t == durationType {
		return t
	}
	if bt, ok := basicTypes[t.Kind()]; ok {
		return bt
	}
	return t
}

// IsEnum reports whether t (nullable stripped) is a named integer or string type
func IsEnum(t reflect.Type) bool {
	return KindOf(t) == KindEnum
}

// IsPrimitive reports whether t belongs to the primitive set.
// Classification depends only on the declared type.
func IsPrimitive(t reflect.Type) bool {
	return KindOf(t) != KindInvalid
}

// KindOf classifies t with its nullable layers stripped
func KindOf(t reflect.Type) Kind {
	t = Base(t)
	if t == nil {
		return KindInvalid
	}

	switch t {
	case timeType:
		return KindTime
	case durationType:
		return KindDuration
	case uuidType:
		return KindUUID
	}

	bt, basic := basicTypes[t.Kind()]
	if basic && t != bt && t.Kind() != reflect.Bool && t.Kind() != reflect.Float32 && t.Kind() != reflect.Float64 {
		return KindEnum
	}

	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.String:
		return KindString
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return KindText
	}
	return KindInvalid
}
