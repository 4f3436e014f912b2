package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/conduit-lang/recordkit/internal/orm/accessor"
	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

// KeyPredicate returns an AND group matching the key columns of ks against
// key, one value per key property in schema order. Each value is coerced to
// its property type first. A nil value on a nullable key renders IS NULL.
func KeyPredicate(ks *schema.KeySchema, key ...interface{}) (*PredicateGroup, error) {
	if len(key) != ks.Len() {
		return nil, fmt.Errorf("%s: %w: want %d values, got %d", ks, accessor.ErrArityMismatch, ks.Len(), len(key))
	}

	pb := NewPredicateBuilder()
	for i, p := range ks.Keys {
		v, err := coerce.Convert(p.Type, key[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", ks.Type, p.Name, err)
		}
		value, null := driverValue(v)
		if null {
			pb.Where(p.Column, OpIsNull, nil)
			continue
		}
		pb.Where(p.Column, OpEqual, value)
	}
	return pb.Group(), nil
}

// KeysPredicate returns an OR group matching any of keys. Single-column
// keys without nulls render as one IN condition. No keys match no rows.
func KeysPredicate(ks *schema.KeySchema, keys ...[]interface{}) (*PredicateGroup, error) {
	if len(keys) == 0 {
		none := NewPredicateGroup(false)
		none.AddCondition(&Condition{Field: ks.Keys[0].Column, Operator: OpIn, Value: []interface{}{}})
		return none, nil
	}

	groups := make([]*PredicateGroup, 0, len(keys))
	for _, key := range keys {
		g, err := KeyPredicate(ks, key...)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	if ks.Len() == 1 {
		values := make([]interface{}, 0, len(groups))
		for _, g := range groups {
			if g.Conditions[0].Operator != OpEqual {
				values = nil
				break
			}
			values = append(values, g.Conditions[0].Value)
		}
		if values != nil {
			in := NewPredicateGroup(false)
			in.AddCondition(&Condition{Field: ks.Keys[0].Column, Operator: OpIn, Value: values})
			return in, nil
		}
	}

	or := NewPredicateGroup(true)
	for _, g := range groups {
		or.AddGroup(g)
	}
	return or, nil
}

// Where renders pg as a WHERE clause with placeholders starting at $1.
// An empty group renders no clause.
func Where(pg *PredicateGroup) (string, []interface{}, error) {
	paramCounter := 1
	args := make([]interface{}, 0)
	sql, err := pg.ToSQL(&paramCounter, &args)
	if err != nil {
		return "", nil, err
	}
	if sql == "" {
		return "", args, nil
	}
	return " WHERE " + sql, args, nil
}

// SelectByKey renders a SELECT of columns from table for the record with
// the given key. With no columns every column is selected.
func SelectByKey(table string, columns []string, ks *schema.KeySchema, key ...interface{}) (string, []interface{}, error) {
	pg, err := KeyPredicate(ks, key...)
	if err != nil {
		return "", nil, err
	}
	where, args, err := Where(pg)
	if err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(columns, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s%s", cols, table, where), args, nil
}

// driverValue unwraps a coerced key value into what a SQL driver accepts.
// Enums are passed as their underlying type.
func driverValue(v reflect.Value) (interface{}, bool) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	if coerce.IsEnum(v.Type()) {
		v = v.Convert(coerce.Underlying(v.Type()))
	}
	return v.Interface(), false
}
