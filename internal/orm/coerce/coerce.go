// Package coerce converts loosely-typed values into the exact declared type
// of a record property. Failures are reported as *ConversionError values so
// that key lookups can degrade to "not found".
package coerce

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// To converts value to T, reporting false when the conversion fails.
// Callers must check the flag; the returned zero value carries no meaning.
func To[T any](value interface{}) (T, bool) {
	var zero T
	out, err := Convert(reflect.TypeOf((*T)(nil)).Elem(), value)
	if err != nil {
		return zero, false
	}
	result, _ := out.Interface().(T)
	return result, true
}

// Convert coerces value to target.
//
// When the runtime type of value already is the target type, or its
// underlying type (nullable and enum stripped), the value is converted
// directly. Otherwise the textual form of value is parsed with the
// target's parse convention: strconv for scalar kinds (enums parse against
// their underlying integer or string form), time.ParseDuration for
// durations and encoding.TextUnmarshaler for everything else.
func Convert(target reflect.Type, value interface{}) (reflect.Value, error) {
	base := Base(target)
	rv := indirect(reflect.ValueOf(value))

	if !rv.IsValid() {
		if nilable(target) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, conversionError(target, value, "nil value")
	}

	if base.Kind() == reflect.Interface {
		if !rv.Type().Implements(base) {
			return reflect.Value{}, conversionError(target, value, "does not implement "+base.String())
		}
		out := reflect.New(base).Elem()
		out.Set(rv)
		return wrap(target, out), nil
	}

	if rv.Type() == base || rv.Type() == Underlying(base) {
		return wrap(target, rv.Convert(base)), nil
	}

	text, ok := toText(rv)
	if !ok {
		return reflect.Value{}, conversionError(target, value, "no textual form")
	}

	out, err := parse(base, text)
	if err != nil {
		return reflect.Value{}, conversionError(target, value, err.Error())
	}
	return wrap(target, out), nil
}

// ChangeType performs a general value conversion (int to int64, string to
// int, float to string and so on) as used when copying values between
// differently typed properties. A nil value yields the zero value of target.
func ChangeType(target reflect.Type, value interface{}) (reflect.Value, error) {
	base := Base(target)
	rv := indirect(reflect.ValueOf(value))

	if !rv.IsValid() {
		return reflect.Zero(target), nil
	}

	if rv.Type().AssignableTo(base) {
		out := reflect.New(base).Elem()
		out.Set(rv)
		return wrap(target, out), nil
	}

	// cast works on predeclared types only
	plain := rv
	if bt, ok := basicTypes[rv.Kind()]; ok && rv.Type() != durationType {
		plain = rv.Convert(bt)
	}
	v := plain.Interface()

	out := reflect.New(base).Elem()
	var err error

	switch {
	case base == durationType:
		var d time.Duration
		if d, err = cast.ToDurationE(v); err == nil {
			out.SetInt(int64(d))
		}
	case base == timeType:
		var t time.Time
		if t, err = cast.ToTimeE(v); err == nil {
			out.Set(reflect.ValueOf(t))
		}
	default:
		switch base.Kind() {
		case reflect.String:
			var s string
			if s, err = cast.ToStringE(v); err == nil {
				out.SetString(s)
			}
		case reflect.Bool:
			var b bool
			if b, err = cast.ToBoolE(v); err == nil {
				out.SetBool(b)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			var n int64
			if n, err = cast.ToInt64E(v); err == nil {
				if out.OverflowInt(n) {
					return reflect.Value{}, conversionError(target, value, "overflow")
				}
				out.SetInt(n)
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			var n uint64
			if n, err = cast.ToUint64E(v); err == nil {
				if out.OverflowUint(n) {
					return reflect.Value{}, conversionError(target, value, "overflow")
				}
				out.SetUint(n)
			}
		case reflect.Float32, reflect.Float64:
			var f float64
			if f, err = cast.ToFloat64E(v); err == nil {
				out.SetFloat(f)
			}
		default:
			return Convert(target, value)
		}
	}

	if err != nil {
		return reflect.Value{}, conversionError(target, value, err.Error())
	}
	return wrap(target, out), nil
}

// parse reads text into a value of type base
func parse(base reflect.Type, text string) (reflect.Value, error) {
	out := reflect.New(base).Elem()

	if base == durationType {
		trimmed := strings.TrimSpace(text)
		if d, err := time.ParseDuration(trimmed); err == nil {
			out.SetInt(int64(d))
			return out, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
		return out, nil
	}

	switch base.Kind() {
	case reflect.String:
		out.SetString(text)
		return out, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
		return out, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
		return out, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
		return out, nil
	}

	if reflect.PointerTo(base).Implements(textUnmarshalerType) {
		ptr := reflect.New(base)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	return reflect.Value{}, fmt.Errorf("%s has no parse capability", base)
}

// toText renders rv the way a parse function expects to read it back.
// Named scalar kinds are rendered through their underlying value so an
// enum with a String method still round-trips.
func toText(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), true
		}
	}

	if rv.Type().Implements(textMarshalerType) {
		b, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false
		}
		return string(b), true
	}

	if !rv.CanInterface() {
		return "", false
	}
	return fmt.Sprint(rv.Interface()), true
}

// indirect follows pointers and interfaces; a nil along the way yields
// the invalid Value
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

// wrap re-applies the pointer layers of target around v
func wrap(target reflect.Type, v reflect.Value) reflect.Value {
	if target.Kind() != reflect.Ptr {
		return v
	}
	inner := wrap(target.Elem(), v)
	ptr := reflect.New(target.Elem())
	ptr.Elem().Set(inner)
	return ptr
}
