package coerce

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrConversion is returned when a value cannot be coerced to a target type
var ErrConversion = errors.New("value cannot be converted")

// ConversionError describes a failed coercion
type ConversionError struct {
	Target reflect.Type
	Value  interface{}
	Reason string
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot convert %#v to %s", e.Value, e.Target)
	}
	return fmt.Sprintf("cannot convert %#v to %s: %s", e.Value, e.Target, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConversion)
func (e *ConversionError) Unwrap() error {
	return ErrConversion
}

// IsConversionError returns true if the error is a conversion failure
func IsConversionError(err error) bool {
	return errors.Is(err, ErrConversion)
}

func conversionError(target reflect.Type, value interface{}, reason string) error {
	return &ConversionError{Target: target, Value: value, Reason: reason}
}
