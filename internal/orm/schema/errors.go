package schema

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoKey is returned when a record type has no key-marked fields,
	// no companion metadata and no id-named fallback
	ErrNoKey = errors.New("record type has no discoverable key")

	// ErrNotRecord is returned when a type is not a struct
	ErrNotRecord = errors.New("not a record type")

	// ErrInvalidDeclaration is returned when an explicit key declaration or
	// tag cannot be honoured
	ErrInvalidDeclaration = errors.New("invalid key declaration")
)

// SchemaError reports a record type definition defect
type SchemaError struct {
	Type   reflect.Type
	Reason string
	Err    error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("schema error for %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error for %s: %v: %s", e.Type, e.Err, e.Reason)
}

// Unwrap returns the sentinel error
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError returns true if the error is a *SchemaError
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsNoKey returns true if the error is ErrNoKey
func IsNoKey(err error) bool {
	return errors.Is(err, ErrNoKey)
}
