// Package query renders WHERE predicates over record key columns. It only
// builds SQL text and arguments with PostgreSQL-style placeholders; running
// the statement is left to the caller.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCondition is returned when a condition cannot be rendered
var ErrInvalidCondition = errors.New("invalid condition")

// Operator represents a comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpIn
	OpIsNull
)

// String returns the string representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	default:
		return "UNKNOWN"
	}
}

// Condition represents a single column comparison
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// PredicateGroup represents a group of predicates combined with AND/OR
type PredicateGroup struct {
	Conditions []*Condition
	Groups     []*PredicateGroup
	Or         bool // true for OR, false for AND
}

// NewPredicateGroup creates a new predicate group
func NewPredicateGroup(or bool) *PredicateGroup {
	return &PredicateGroup{Or: or}
}

// AddCondition adds a condition to the group
func (pg *PredicateGroup) AddCondition(cond *Condition) {
	pg.Conditions = append(pg.Conditions, cond)
}

// AddGroup adds a nested group
func (pg *PredicateGroup) AddGroup(group *PredicateGroup) {
	pg.Groups = append(pg.Groups, group)
}

// Empty reports whether the group renders to nothing
func (pg *PredicateGroup) Empty() bool {
	for _, g := range pg.Groups {
		if !g.Empty() {
			return false
		}
	}
	return len(pg.Conditions) == 0
}

// ToSQL renders the group, numbering placeholders from *paramCounter and
// appending the bound values to args
func (pg *PredicateGroup) ToSQL(paramCounter *int, args *[]interface{}) (string, error) {
	parts := make([]string, 0, len(pg.Conditions)+len(pg.Groups))

	for _, cond := range pg.Conditions {
		sql, err := conditionToSQL(cond, paramCounter, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	for _, group := range pg.Groups {
		sql, err := group.ToSQL(paramCounter, args)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, "("+sql+")")
		}
	}

	connector := " AND "
	if pg.Or {
		connector = " OR "
	}
	return strings.Join(parts, connector), nil
}

// conditionToSQL converts a condition to SQL with parameterized values
func conditionToSQL(cond *Condition, paramCounter *int, args *[]interface{}) (string, error) {
	placeholder := func(v interface{}) string {
		*args = append(*args, v)
		p := fmt.Sprintf("$%d", *paramCounter)
		*paramCounter++
		return p
	}

	switch cond.Operator {
	case OpEqual:
		return fmt.Sprintf("%s %s %s", cond.Field, cond.Operator, placeholder(cond.Value)), nil

	case OpIn:
		values, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("%s: IN requires []interface{}: %w", cond.Field, ErrInvalidCondition)
		}
		if len(values) == 0 {
			// IN with an empty list matches nothing
			return "FALSE", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = placeholder(v)
		}
		return fmt.Sprintf("%s IN (%s)", cond.Field, strings.Join(placeholders, ", ")), nil

	case OpIsNull:
		return fmt.Sprintf("%s %s", cond.Field, cond.Operator), nil

	default:
		return "", fmt.Errorf("operator %d: %w", cond.Operator, ErrInvalidCondition)
	}
}

// PredicateBuilder provides a fluent API for building an AND group
type PredicateBuilder struct {
	root *PredicateGroup
}

// NewPredicateBuilder creates a new predicate builder joining with AND
func NewPredicateBuilder() *PredicateBuilder {
	return &PredicateBuilder{root: NewPredicateGroup(false)}
}

// Where adds a condition to the group
func (pb *PredicateBuilder) Where(field string, op Operator, value interface{}) *PredicateBuilder {
	pb.root.AddCondition(&Condition{Field: field, Operator: op, Value: value})
	return pb
}

// Group returns the built predicate group
func (pb *PredicateBuilder) Group() *PredicateGroup {
	return pb.root
}
