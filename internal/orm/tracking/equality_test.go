package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID int
	V  string
	At *time.Time
}

type money struct {
	Cents    int64
	Currency string
}

// Equal accepts a lowercase usd against USD, in one direction only
func (m money) Equal(o money) bool {
	return m.Cents == o.Cents && (m.Currency == o.Currency || m.Currency == "usd" && o.Currency == "USD")
}

func TestValueEquals(t *testing.T) {
	five := 5
	otherFive := 5
	six := 6
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and typed nil", nil, (*int)(nil), true},
		{"nil and value", nil, 0, false},
		{"equal ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"pointers to equal values", &five, &otherFive, true},
		{"pointer and value", &five, 5, true},
		{"pointers to different values", &five, &six, false},
		{"times through Equal", at, at.In(time.FixedZone("Y", -7200)), true},
		{"slices", []byte{1, 2}, []byte{1, 2}, true},
		{"Equal method on left", money{1, "usd"}, money{1, "USD"}, true},
		{"Equal method on right", money{1, "USD"}, money{1, "usd"}, true},
		{"Equal method says no", money{1, "usd"}, money{2, "usd"}, false},
		{"different types", int32(1), int64(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueEquals(tt.a, tt.b))
			assert.Equal(t, tt.want, ValueEquals(tt.b, tt.a), "symmetric")
		})
	}
}

func TestValueEquals_Reflexive(t *testing.T) {
	at := time.Now()
	for _, v := range []interface{}{nil, 0, "x", at, &at, money{3, "EUR"}, []string{"a"}} {
		assert.True(t, ValueEquals(v, v), "%#v", v)
	}
}

func TestStructEquals(t *testing.T) {
	c := newComparer()
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	same := at

	eq, err := c.StructEquals(&line{ID: 1, V: "a", At: &at}, &line{ID: 1, V: "a", At: &same}, []string{"ID", "V", "At"}, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.StructEquals(&line{ID: 1, V: "a"}, &line{ID: 1, V: "b"}, []string{"ID", "V"}, nil)
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = c.StructEquals(&line{ID: 1, V: "a"}, &line{ID: 1, V: "b"}, []string{"ID"}, nil)
	require.NoError(t, err)
	assert.True(t, eq, "only selected properties are compared")

	eq, err = c.StructEquals(nil, (*line)(nil), []string{"ID"}, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.StructEquals(&line{}, (*line)(nil), []string{"ID"}, nil)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestStructEquals_Extra(t *testing.T) {
	c := newComparer()
	calls := 0
	extra := func(a, b interface{}) bool {
		calls++
		return a.(*line).V+"!" == b.(*line).V
	}

	eq, err := c.StructEquals(&line{ID: 1, V: "a"}, &line{ID: 1, V: "a!"}, []string{"ID"}, extra)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.StructEquals(&line{ID: 2, V: "a"}, &line{ID: 1, V: "a!"}, []string{"ID"}, extra)
	require.NoError(t, err)
	assert.False(t, eq)
	assert.Equal(t, 1, calls, "extra only runs after properties match")
}

func TestStructEquals_Errors(t *testing.T) {
	c := newComparer()

	_, err := c.StructEquals(&line{}, &line{}, []string{"Missing"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	_, err = c.StructEquals(&line{}, &money{}, []string{"ID"}, nil)
	assert.Error(t, err)
}

func TestCollectionEquals(t *testing.T) {
	c := newComparer()

	old := []*line{{ID: 1, V: "a"}, {ID: 2, V: "b"}}
	reordered := []*line{{ID: 2, V: "b"}, {ID: 1, V: "a"}}

	eq, err := c.CollectionEquals(old, reordered, []string{"ID", "V"}, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.CollectionEquals(old, []*line{{ID: 1, V: "a"}, {ID: 2, V: "c"}}, []string{"ID", "V"}, nil)
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = c.CollectionEquals(old, []*line{{ID: 1, V: "a"}}, []string{"ID"}, nil)
	require.NoError(t, err)
	assert.False(t, eq, "length mismatch")
}

func TestCollectionEquals_Multiset(t *testing.T) {
	c := newComparer()

	eq, err := c.CollectionEquals(
		[]*line{{ID: 1}, {ID: 1}},
		[]*line{{ID: 1}, {ID: 2}},
		[]string{"ID"}, nil)
	require.NoError(t, err)
	assert.False(t, eq, "each new item is matched at most once")

	eq, err = c.CollectionEquals(
		[]*line{{ID: 1}, nil},
		[]*line{nil, {ID: 1}},
		[]string{"ID"}, nil)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCollectionEquals_NoProperties(t *testing.T) {
	c := newComparer()

	eq, err := c.CollectionEquals([]*line{{ID: 1}}, []*line{{ID: 99}}, nil, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.CollectionEquals(nil, []*line{}, []string{"ID"}, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = c.CollectionEquals([]*line{{ID: 1}}, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestCollectionEquals_Errors(t *testing.T) {
	c := newComparer()

	_, err := c.CollectionEquals(1, []*line{}, nil, nil)
	assert.ErrorIs(t, err, ErrNotSequence)

	_, err = c.CollectionEquals([]*line{{}}, []*line{{}}, []string{"Nope"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProperty)
}
