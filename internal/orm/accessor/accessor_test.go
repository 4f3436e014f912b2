package accessor

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/recordkit/internal/orm/coerce"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

type order struct {
	ID         int `orm:"key"`
	CustomerID int
	Notes      string
}

type priority int

const (
	priorityLow priority = iota
	priorityHigh
)

func (p priority) String() string {
	if p == priorityHigh {
		return "high"
	}
	return "low"
}

type ticket struct {
	Tenant   uuid.UUID `orm:"key,order=1"`
	Priority priority  `orm:"key,order=2"`
	Opened   time.Time `orm:"key,order=3"`
	Title    string
	Body     []byte
}

type reading struct {
	Sensor *int64 `orm:"key"`
	Value  float64
}

type user struct {
	ID     int
	Name   string
	Secret string
}

type userDTO struct {
	ID   int
	Name string
}

type looseDTO struct {
	ID    string
	Name  string
	Extra bool
}

type profile struct {
	ID      int64
	Name    string
	Score   *float64
	Tags    []string
	Manager *user
}

func newTestRegistry() *Registry {
	return NewRegistry(schema.NewResolver(schema.DefaultOptions(), nil), nil)
}

func keysFor(t *testing.T, r *Registry, sample interface{}) *KeyFuncs {
	t.Helper()
	kf, err := r.Keys(reflect.TypeOf(sample))
	require.NoError(t, err)
	return kf
}

func TestOrderScenario(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, &order{})
	o := reflect.ValueOf(&order{ID: 42, CustomerID: 7, Notes: "rush"})

	assert.Equal(t, []interface{}{42}, kf.GetKey(o))
	assert.True(t, kf.KeyEquals(o, []interface{}{42}))
	assert.True(t, kf.KeyEquals(o, []interface{}{"42"}))
	assert.False(t, kf.KeyEquals(o, []interface{}{43}))
	assert.False(t, kf.KeyEquals(o, []interface{}{42, 1}))
	assert.False(t, kf.KeyEquals(o, []interface{}{"forty-two"}))
	assert.False(t, kf.KeyEquals(o, nil))
}

func TestKeyFuncs_RoundTrip(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, ticket{})

	tk := &ticket{
		Tenant:   uuid.New(),
		Priority: priorityHigh,
		Opened:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Title:    "printer on fire",
		Body:     []byte("smoke"),
	}
	v := reflect.ValueOf(tk)

	key := kf.GetKey(v)
	require.Len(t, key, 3)
	assert.Equal(t, tk.Tenant, key[0])
	// enums are boxed through their integer form, never the display name
	assert.Equal(t, 1, key[1])
	assert.True(t, kf.KeyEquals(v, key))

	// textual keys coerce as well
	assert.True(t, kf.KeyEquals(v, []interface{}{tk.Tenant.String(), "1", "2024-05-01T09:30:00Z"}))
	assert.False(t, kf.KeyEquals(v, []interface{}{tk.Tenant.String(), "0", "2024-05-01T09:30:00Z"}))
}

func TestKeyFuncs_Identity(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, ticket{})

	tk := &ticket{Tenant: uuid.New(), Priority: priorityHigh, Opened: time.Now(), Title: "x", Body: []byte{1}}
	id := kf.Identity(reflect.ValueOf(tk)).Interface().(*ticket)

	require.NotSame(t, tk, id)
	assert.Equal(t, tk.Tenant, id.Tenant)
	assert.Equal(t, tk.Priority, id.Priority)
	assert.True(t, tk.Opened.Equal(id.Opened))
	assert.Empty(t, id.Title)
	assert.Nil(t, id.Body)
}

func TestKeyFuncs_FillKey(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, order{})

	src := reflect.ValueOf(&order{ID: 9})
	dst := &order{ID: 1, CustomerID: 3, Notes: "keep"}

	require.NoError(t, kf.FillKey(kf.GetKey(src), reflect.ValueOf(dst)))
	assert.Equal(t, 9, dst.ID)
	assert.Equal(t, 3, dst.CustomerID)
	assert.Equal(t, "keep", dst.Notes)
	assert.True(t, kf.KeyEquals(reflect.ValueOf(dst), kf.GetKey(src)))

	t.Run("arity mismatch", func(t *testing.T) {
		err := kf.FillKey([]interface{}{1, 2}, reflect.ValueOf(dst))
		assert.True(t, IsArityMismatch(err))
	})

	t.Run("conversion failure writes nothing", func(t *testing.T) {
		err := kf.FillKey([]interface{}{"nope"}, reflect.ValueOf(dst))
		assert.True(t, coerce.IsConversionError(err))
		assert.Equal(t, 9, dst.ID)
	})
}

func TestKeyFuncs_InitFromKey(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, order{})

	v, err := kf.InitFromKey([]interface{}{"15"})
	require.NoError(t, err)
	o := v.Interface().(*order)
	assert.Equal(t, 15, o.ID)
	assert.Zero(t, o.CustomerID)

	_, err = kf.InitFromKey(nil)
	assert.True(t, IsArityMismatch(err))
}

func TestKeyFuncs_NullableKey(t *testing.T) {
	r := newTestRegistry()
	kf := keysFor(t, r, reading{})

	sensor := int64(12)
	withSensor := reflect.ValueOf(&reading{Sensor: &sensor})
	without := reflect.ValueOf(&reading{})

	assert.Equal(t, []interface{}{int64(12)}, kf.GetKey(withSensor))
	assert.Equal(t, []interface{}{nil}, kf.GetKey(without))

	assert.True(t, kf.KeyEquals(withSensor, []interface{}{12}))
	assert.True(t, kf.KeyEquals(without, []interface{}{nil}))
	assert.False(t, kf.KeyEquals(without, []interface{}{12}))

	other := &reading{}
	require.NoError(t, kf.FillKey([]interface{}{"5"}, reflect.ValueOf(other)))
	require.NotNil(t, other.Sensor)
	assert.Equal(t, int64(5), *other.Sensor)
}

func TestKeys_SchemaError(t *testing.T) {
	type keyless struct{ Name string }
	r := newTestRegistry()

	_, err := r.Keys(reflect.TypeOf(keyless{}))
	assert.True(t, schema.IsNoKey(err))
}

func TestMapper_ByName(t *testing.T) {
	r := newTestRegistry()

	m, err := r.Mapper(reflect.TypeOf(user{}), reflect.TypeOf(userDTO{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name"}, m.Fields())

	out := m.Map(reflect.ValueOf(&user{ID: 1, Name: "ada", Secret: "s3cret"})).Interface().(*userDTO)
	assert.Equal(t, &userDTO{ID: 1, Name: "ada"}, out)

	t.Run("reverse leaves missing fields at default", func(t *testing.T) {
		back, err := r.Mapper(reflect.TypeOf(userDTO{}), reflect.TypeOf(user{}))
		require.NoError(t, err)
		u := back.Map(reflect.ValueOf(&userDTO{ID: 2, Name: "bob"})).Interface().(*user)
		assert.Equal(t, &user{ID: 2, Name: "bob"}, u)
	})

	t.Run("nil source", func(t *testing.T) {
		out := m.Map(reflect.ValueOf((*user)(nil)))
		assert.True(t, out.IsNil())
	})

	t.Run("primitive types are converted", func(t *testing.T) {
		loose, err := r.Mapper(reflect.TypeOf(user{}), reflect.TypeOf(looseDTO{}))
		require.NoError(t, err)
		l := loose.Map(reflect.ValueOf(&user{ID: 5, Name: "eve"})).Interface().(*looseDTO)
		assert.Equal(t, "5", l.ID)
		assert.Equal(t, "eve", l.Name)
		assert.False(t, l.Extra)
	})

	t.Run("cached per pair", func(t *testing.T) {
		again, err := r.Mapper(reflect.TypeOf(&user{}), reflect.TypeOf(&userDTO{}))
		require.NoError(t, err)
		assert.Same(t, m, again)
	})
}

func TestRoller(t *testing.T) {
	r := newTestRegistry()

	roller, err := r.Roller(reflect.TypeOf(profile{}), reflect.TypeOf(profile{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Score"}, roller.Fields())

	score := 4.5
	from := &profile{ID: 1, Name: "new", Score: &score, Tags: []string{"a"}, Manager: &user{ID: 3}}
	to := &profile{ID: 9, Name: "old", Tags: []string{"keep"}}

	got := roller.Roll(reflect.ValueOf(from), reflect.ValueOf(to)).Interface().(*profile)
	assert.Same(t, to, got)
	assert.Equal(t, int64(1), to.ID)
	assert.Equal(t, "new", to.Name)
	assert.Equal(t, &score, to.Score)
	assert.Equal(t, []string{"keep"}, to.Tags)
	assert.Nil(t, to.Manager)
}

func TestDictMapper(t *testing.T) {
	r := newTestRegistry()

	dm, err := r.DictMapper(reflect.TypeOf(profile{}))
	require.NoError(t, err)

	v, err := dm.Map(map[string]interface{}{
		"ID":    "17",
		"Name":  "grace",
		"Score": 3,
		"Tags":  []string{"x", "y"},
		"Other": "ignored",
	})
	require.NoError(t, err)
	p := v.Interface().(*profile)
	assert.Equal(t, int64(17), p.ID)
	assert.Equal(t, "grace", p.Name)
	require.NotNil(t, p.Score)
	assert.Equal(t, 3.0, *p.Score)
	assert.Equal(t, []string{"x", "y"}, p.Tags)
	assert.Nil(t, p.Manager)

	t.Run("missing entries stay default", func(t *testing.T) {
		v, err := dm.Map(map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, &profile{}, v.Interface())
	})

	t.Run("nil entries stay default", func(t *testing.T) {
		v, err := dm.Map(map[string]interface{}{"ID": nil, "Score": nil, "Name": "n"})
		require.NoError(t, err)
		assert.Equal(t, &profile{Name: "n"}, v.Interface())
	})

	t.Run("unconvertible value", func(t *testing.T) {
		_, err := dm.Map(map[string]interface{}{"ID": "seventeen"})
		require.Error(t, err)
		assert.True(t, coerce.IsConversionError(err))
		assert.Contains(t, err.Error(), "ID: ")
	})
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := newTestRegistry()
	const goroutines = 32

	var wg sync.WaitGroup
	funcs := make([]*KeyFuncs, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kf, err := r.Keys(reflect.TypeOf(order{}))
			assert.NoError(t, err)
			funcs[i] = kf

			o := reflect.ValueOf(&order{ID: i})
			assert.True(t, kf.KeyEquals(o, kf.GetKey(o)))
		}(i)
	}
	wg.Wait()

	for _, kf := range funcs {
		assert.Same(t, funcs[0], kf)
	}
	assert.Equal(t, 1, r.Stats()["key-funcs"])
}

func BenchmarkKeyEquals(b *testing.B) {
	r := newTestRegistry()
	kf, _ := r.Keys(reflect.TypeOf(order{}))
	o := reflect.ValueOf(&order{ID: 42})
	key := []interface{}{"42"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kf.KeyEquals(o, key)
	}
}

func BenchmarkMapper(b *testing.B) {
	r := newTestRegistry()
	m, _ := r.Mapper(reflect.TypeOf(user{}), reflect.TypeOf(userDTO{}))
	u := reflect.ValueOf(&user{ID: 1, Name: "ada", Secret: "x"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Map(u)
	}
}

func TestDictValue(t *testing.T) {
	dict := map[string]interface{}{"n": "12", "nil": nil, "bad": "x"}
	intType := reflect.TypeOf(0)

	v, ok, err := DictValue(dict, "n", intType)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12, v.Interface())

	_, ok, err = DictValue(dict, "nil", intType)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = DictValue(dict, "missing", intType)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DictValue(dict, "bad", intType)
	assert.True(t, coerce.IsConversionError(err))
	assert.Contains(t, err.Error(), "bad: ")
}
