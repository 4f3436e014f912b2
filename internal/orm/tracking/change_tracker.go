// Package tracking compares records and tracks field changes between two
// states of a record. Only primitive-like fields are tracked.
package tracking

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

// ErrUnknownField is returned when a tracker is asked to update a field it does not track
var ErrUnknownField = errors.New("field is not tracked")

// FieldChange represents a change to a single field
type FieldChange struct {
	Field    string
	Column   string
	OldValue interface{}
	NewValue interface{}
}

// ChangeTracker tracks field changes between two states of a record
type ChangeTracker struct {
	mu       sync.RWMutex
	fields   []schema.Property
	original map[string]interface{}
	current  map[string]interface{}
	changes  map[string]*FieldChange
}

// Track snapshots the primitive-like fields of original and current and
// computes which of them differ. Both must be the same record type.
// Later mutation of either record does not affect the tracker.
func (c *Comparer) Track(original, current interface{}) (*ChangeTracker, error) {
	ov, nv := indirect(reflect.ValueOf(original)), indirect(reflect.ValueOf(current))
	if ov.Kind() != reflect.Struct || nv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tracking %T and %T: %w", original, current, schema.ErrNotRecord)
	}
	if ov.Type() != nv.Type() {
		return nil, fmt.Errorf("tracking %s against %s: %w", ov.Type(), nv.Type(), schema.ErrNotRecord)
	}

	layout, err := c.walker.Layout(ov.Type())
	if err != nil {
		return nil, err
	}

	ct := &ChangeTracker{
		fields:   layout.Primitive,
		original: snapshot(ov, layout.Primitive),
		current:  snapshot(nv, layout.Primitive),
		changes:  make(map[string]*FieldChange),
	}
	ct.computeChanges()
	return ct, nil
}

// snapshot copies the tracked fields of v, dereferencing nullable values
func snapshot(v reflect.Value, fields []schema.Property) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for _, p := range fields {
		fv := p.Value(v)
		for fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Ptr {
			result[p.Name] = nil
			continue
		}
		result[p.Name] = fv.Interface()
	}
	return result
}

// computeChanges calculates which fields have changed
func (ct *ChangeTracker) computeChanges() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	for _, p := range ct.fields {
		oldValue, newValue := ct.original[p.Name], ct.current[p.Name]
		if !ValueEquals(oldValue, newValue) {
			ct.changes[p.Name] = &FieldChange{
				Field:    p.Name,
				Column:   p.Column,
				OldValue: oldValue,
				NewValue: newValue,
			}
		}
	}
}

// Changed returns true if the specified field has changed
func (ct *ChangeTracker) Changed(field string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, ok := ct.changes[field]
	return ok
}

// ChangedFields returns the changed fields in declaration order
func (ct *ChangeTracker) ChangedFields() []string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	fields := make([]string, 0, len(ct.changes))
	for _, p := range ct.fields {
		if _, ok := ct.changes[p.Name]; ok {
			fields = append(fields, p.Name)
		}
	}
	return fields
}

// PreviousValue returns the original value of a field
func (ct *ChangeTracker) PreviousValue(field string) interface{} {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.original[field]
}

// CurrentValue returns the current value of a field
func (ct *ChangeTracker) CurrentValue(field string) interface{} {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.current[field]
}

// GetChange returns the FieldChange for a specific field, or nil if unchanged
func (ct *ChangeTracker) GetChange(field string) *FieldChange {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.changes[field]
}

// Changes returns a copy of all changes
func (ct *ChangeTracker) Changes() map[string]*FieldChange {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make(map[string]*FieldChange, len(ct.changes))
	for k, v := range ct.changes {
		result[k] = v
	}
	return result
}

// HasChanges returns true if any fields have changed
func (ct *ChangeTracker) HasChanges() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.changes) > 0
}

// ChangedTo returns true if the field changed to the specified value
func (ct *ChangeTracker) ChangedTo(field string, value interface{}) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	change, ok := ct.changes[field]
	if !ok {
		return false
	}
	return ValueEquals(change.NewValue, value)
}

// ChangedFrom returns true if the field changed from the specified value
func (ct *ChangeTracker) ChangedFrom(field string, value interface{}) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	change, ok := ct.changes[field]
	if !ok {
		return false
	}
	return ValueEquals(change.OldValue, value)
}

// Reset makes the current state the new original and clears all changes
func (ct *ChangeTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.original = make(map[string]interface{}, len(ct.current))
	for k, v := range ct.current {
		ct.original[k] = v
	}
	ct.changes = make(map[string]*FieldChange)
}

// SetFieldValue updates a tracked field value and recomputes its change status
func (ct *ChangeTracker) SetFieldValue(field string, value interface{}) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	var prop *schema.Property
	for i := range ct.fields {
		if ct.fields[i].Name == field {
			prop = &ct.fields[i]
			break
		}
	}
	if prop == nil {
		return fmt.Errorf("%s: %w", field, ErrUnknownField)
	}

	ct.current[field] = value
	oldValue := ct.original[field]
	if ValueEquals(oldValue, value) {
		// reverted to the original
		delete(ct.changes, field)
		return nil
	}
	ct.changes[field] = &FieldChange{
		Field:    field,
		Column:   prop.Column,
		OldValue: oldValue,
		NewValue: value,
	}
	return nil
}

// ChangedData returns the new values of the changed fields keyed by column name
func (ct *ChangeTracker) ChangedData() map[string]interface{} {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make(map[string]interface{}, len(ct.changes))
	for _, change := range ct.changes {
		result[change.Column] = change.NewValue
	}
	return result
}
