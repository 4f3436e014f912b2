package graph

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

type address struct {
	Street string
	Zip    string
}

type person struct {
	ID       int64
	Name     string
	Nickname *string
	Born     time.Time
	Home     address
	Work     *address
	Friends  []*person
	Tags     []string
	Avatar   []byte
	Labels   map[string]string
	Partner  *person
	Extra    interface{}
}

type payload struct {
	Blob  []byte
	Label string
}

type sealed struct {
	*payload
	Seal []byte
}

type envelope struct {
	*sealed
	Name string
}

func newWalker() *Walker {
	return NewWalker(schema.NewResolver(schema.DefaultOptions(), zap.NewNop()))
}

var stringType = reflect.TypeOf("")

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want PropertyKind
	}{
		{"int", int64(0), KindPrimitive},
		{"nullable string", (*string)(nil), KindPrimitive},
		{"time", time.Time{}, KindPrimitive},
		{"string is not a collection", "", KindPrimitive},
		{"bytes", []byte(nil), KindCollection},
		{"slice", []string(nil), KindCollection},
		{"array", [2]int{}, KindCollection},
		{"map", map[string]int(nil), KindCollection},
		{"struct", address{}, KindComplex},
		{"pointer to struct", (*address)(nil), KindComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(reflect.TypeOf(tt.v)))
		})
	}
}

func TestLayout(t *testing.T) {
	w := newWalker()

	layout, err := w.Layout(reflect.TypeOf(&person{}))
	require.NoError(t, err)

	names := func(props []schema.Property) []string {
		out := make([]string, len(props))
		for i, p := range props {
			out[i] = p.Name
		}
		return out
	}

	assert.Equal(t, []string{"ID", "Name", "Nickname", "Born"}, names(layout.Primitive))
	assert.Equal(t, []string{"Home", "Work", "Partner", "Extra"}, names(layout.Complex))
	assert.Equal(t, []string{"Friends", "Tags", "Avatar", "Labels"}, names(layout.Collection))

	kind, ok := layout.Kind("Avatar")
	assert.True(t, ok)
	assert.Equal(t, KindCollection, kind)

	_, ok = layout.Kind("Missing")
	assert.False(t, ok)

	again, err := w.Layout(reflect.TypeOf(person{}))
	require.NoError(t, err)
	assert.Same(t, layout, again)
}

func TestClearByType_Strings(t *testing.T) {
	w := newWalker()
	nick := "bob"
	p := &person{
		ID:       1,
		Name:     "Robert",
		Nickname: &nick,
		Home:     address{Street: "Main", Zip: "1000"},
		Work:     &address{Street: "Dock", Zip: "2000"},
		Tags:     []string{"a"},
	}

	require.NoError(t, w.ClearByType(p, stringType))

	assert.Equal(t, int64(1), p.ID)
	assert.Empty(t, p.Name)
	assert.NotNil(t, p.Nickname, "*string is a different declared type")
	assert.Equal(t, address{}, p.Home)
	assert.Equal(t, &address{}, p.Work)
	assert.Equal(t, []string{"a"}, p.Tags, "[]string is not a string")
}

func TestClearByType_Collections(t *testing.T) {
	w := newWalker()
	p := &person{
		Name:   "x",
		Avatar: []byte{1, 2, 3},
		Tags:   []string{"a"},
	}

	require.NoError(t, w.ClearByType(p, reflect.TypeOf([]byte(nil))))
	assert.Nil(t, p.Avatar)
	assert.Equal(t, "x", p.Name)
	assert.Equal(t, []string{"a"}, p.Tags)

	require.NoError(t, w.ClearByType(p, reflect.TypeOf([]string(nil))))
	assert.Nil(t, p.Tags)
}

func TestClearByType_EmbeddedPointers(t *testing.T) {
	w := newWalker()
	bytesType := reflect.TypeOf([]byte(nil))

	layout, err := w.Layout(reflect.TypeOf(envelope{}))
	require.NoError(t, err)
	require.Len(t, layout.Embedded, 1)
	assert.Equal(t, "sealed", layout.Embedded[0].Name)

	e := &envelope{
		sealed: &sealed{
			payload: &payload{Blob: []byte("secret"), Label: "x"},
			Seal:    []byte("sig"),
		},
		Name: "env",
	}
	require.NoError(t, w.ClearByType(e, bytesType))
	assert.Nil(t, e.Blob)
	assert.Nil(t, e.Seal)
	assert.Equal(t, "x", e.Label)
	assert.Equal(t, "env", e.Name)

	require.NoError(t, w.ClearByType(e, stringType))
	assert.Empty(t, e.Label)
	assert.Empty(t, e.Name)

	t.Run("nil embedded pointer", func(t *testing.T) {
		empty := &envelope{Name: "n"}
		require.NoError(t, w.ClearByType(empty, bytesType))
		assert.Nil(t, empty.sealed)

		half := &envelope{sealed: &sealed{Seal: []byte("sig")}}
		require.NoError(t, w.ClearByType(half, bytesType))
		assert.Nil(t, half.Seal)
		assert.Nil(t, half.payload)
	})
}

func TestClearByType_WalksCollectionElements(t *testing.T) {
	w := newWalker()
	p := &person{
		Name: "root",
		Friends: []*person{
			{Name: "a", Home: address{Street: "A"}},
			nil,
			{Name: "b", Work: &address{Zip: "9"}},
		},
	}

	require.NoError(t, w.ClearByType(p, stringType))

	assert.Empty(t, p.Name)
	assert.Empty(t, p.Friends[0].Name)
	assert.Empty(t, p.Friends[0].Home.Street)
	assert.Nil(t, p.Friends[1])
	assert.Empty(t, p.Friends[2].Name)
	assert.Empty(t, p.Friends[2].Work.Zip)
}

func TestClearByType_Cycles(t *testing.T) {
	w := newWalker()
	a := &person{Name: "a"}
	b := &person{Name: "b"}
	a.Partner = b
	b.Partner = a
	a.Friends = []*person{a, b}
	b.Extra = a

	require.NoError(t, w.ClearByType(a, stringType))

	assert.Empty(t, a.Name)
	assert.Empty(t, b.Name)
	assert.Same(t, b, a.Partner)
	assert.Same(t, a, b.Partner)
}

func TestClearByType_Idempotent(t *testing.T) {
	w := newWalker()
	p := &person{
		ID:      7,
		Name:    "x",
		Born:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Friends: []*person{{Name: "y", ID: 8}},
		Labels:  map[string]string{"k": "v"},
	}

	require.NoError(t, w.ClearByType(p, stringType))
	once := *p
	onceFriend := *p.Friends[0]

	require.NoError(t, w.ClearByType(p, stringType))
	assert.Equal(t, once, *p)
	assert.Equal(t, onceFriend, *p.Friends[0])
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, map[string]string{"k": "v"}, p.Labels)
}

func TestClearByType_NoMatchingProperties(t *testing.T) {
	w := newWalker()
	p := &person{ID: 3, Name: "n", Tags: []string{"t"}}
	want := *p

	require.NoError(t, w.ClearByType(p, reflect.TypeOf(float32(0))))
	assert.Equal(t, want, *p)
}

func TestClearByType_InterfaceHeldStructIsSkipped(t *testing.T) {
	w := newWalker()
	p := &person{Extra: address{Street: "copy"}}

	require.NoError(t, w.ClearByType(p, stringType))
	assert.Equal(t, address{Street: "copy"}, p.Extra)
}

func TestClearByType_Invalid(t *testing.T) {
	w := newWalker()

	assert.ErrorIs(t, w.ClearByType(nil, stringType), ErrNotAddressable)
	assert.ErrorIs(t, w.ClearByType(person{}, stringType), ErrNotAddressable)
	assert.ErrorIs(t, w.ClearByType((*person)(nil), stringType), ErrNotAddressable)

	n := 1
	assert.ErrorIs(t, w.ClearByType(&n, stringType), ErrNotAddressable)
}
