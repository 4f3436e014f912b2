package typecache

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alpha struct{ ID int }
type beta struct{ ID int }

func TestCache_Get(t *testing.T) {
	c := New[reflect.Type, string]("names")
	assert.Equal(t, "names", c.Name())

	v, err := c.Get(reflect.TypeOf(alpha{}), func() (string, error) { return "alpha", nil })
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)

	// second build function is never called
	v, err = c.Get(reflect.TypeOf(alpha{}), func() (string, error) {
		t.Fatal("build called twice")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)
	assert.Equal(t, int64(1), c.Builds())
	assert.Equal(t, 1, c.Len())
}

func TestCache_FailureIsCached(t *testing.T) {
	c := New[reflect.Type, int]("failing")
	boom := errors.New("boom")
	calls := 0

	for i := 0; i < 3; i++ {
		_, err := c.Get(reflect.TypeOf(beta{}), func() (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 1, calls)

	_, ok := c.Load(reflect.TypeOf(beta{}))
	assert.False(t, ok)
	assert.True(t, c.Contains(reflect.TypeOf(beta{})))
	assert.False(t, c.Contains(reflect.TypeOf(alpha{})))
}

func TestCache_PairKeys(t *testing.T) {
	c := New[Pair, string]("pairs")
	ab := Pair{From: reflect.TypeOf(alpha{}), To: reflect.TypeOf(beta{})}
	ba := Pair{From: reflect.TypeOf(beta{}), To: reflect.TypeOf(alpha{})}

	v1, _ := c.Get(ab, func() (string, error) { return ab.String(), nil })
	v2, _ := c.Get(ba, func() (string, error) { return ba.String(), nil })

	assert.NotEqual(t, v1, v2)
	assert.Equal(t, 2, c.Len())
	assert.Contains(t, v1, "->")
}

func TestCache_ConcurrentFirstAccess(t *testing.T) {
	c := New[reflect.Type, *int]("concurrent")
	var builds atomic.Int32
	key := reflect.TypeOf(alpha{})

	const goroutines = 64
	results := make([]*int, goroutines)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := c.Get(key, func() (*int, error) {
				builds.Add(1)
				time.Sleep(5 * time.Millisecond)
				n := int(builds.Load())
				return &n, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	close(start)
	wg.Wait()

	// every caller sees the same published pointer
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, c.Len())
}

func TestFlightKey(t *testing.T) {
	// local types with identical names must not collide
	a := func() reflect.Type {
		type record struct{ A int }
		return reflect.TypeOf(record{})
	}()
	b := func() reflect.Type {
		type record struct{ B string }
		return reflect.TypeOf(record{})
	}()

	assert.NotEqual(t, flightKey(a), flightKey(b))
	assert.Equal(t, flightKey(a), flightKey(a))
	assert.Equal(t, "plain", flightKey("plain"))
}
