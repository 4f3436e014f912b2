// Package typecache provides the process-lifetime, build-once cache that
// holds per-type metadata and compiled accessors.
//
// Entries are written at most once per key and never evicted. Concurrent
// first requests for the same key share a single build; every caller
// observes the value that was published first.
package typecache

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Pair keys an entry built for two types, such as a mapper from one record
// type into another
type Pair struct {
	From reflect.Type
	To   reflect.Type
}

// String returns a readable form of the pair
func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.From, p.To)
}

// entry is what gets published; build failures are cached as well so a
// broken type is only inspected once
type entry[V any] struct {
	value V
	err   error
}

// Cache maps keys to values that are built on first access
type Cache[K comparable, V any] struct {
	name    string
	entries sync.Map // K -> *entry[V]
	group   singleflight.Group
	builds  atomic.Int64
}

// New creates an empty cache. The name only shows up in diagnostics.
func New[K comparable, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{name: name}
}

// Name returns the cache name
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Get returns the value for key, calling build if no value has been
// published yet
func (c *Cache[K, V]) Get(key K, build func() (V, error)) (V, error) {
	// Fast path: already published
	if e, ok := c.entries.Load(key); ok {
		ent := e.(*entry[V])
		return ent.value, ent.err
	}

	result, _, _ := c.group.Do(flightKey(key), func() (interface{}, error) {
		// Another flight may have published between Load and Do
		if e, ok := c.entries.Load(key); ok {
			return e, nil
		}

		value, err := build()
		c.builds.Add(1)

		actual, _ := c.entries.LoadOrStore(key, &entry[V]{value: value, err: err})
		return actual, nil
	})

	ent := result.(*entry[V])
	return ent.value, ent.err
}

// Load returns a published value without building
func (c *Cache[K, V]) Load(key K) (V, bool) {
	e, ok := c.entries.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	ent := e.(*entry[V])
	return ent.value, ent.err == nil
}

// Contains reports whether key has an entry, failed builds included
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.entries.Load(key)
	return ok
}

// Len returns the number of published entries, failures included
func (c *Cache[K, V]) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Builds returns how many times a build function has run
func (c *Cache[K, V]) Builds() int64 {
	return c.builds.Load()
}

// flightKey identifies key for singleflight. Types are identified by their
// runtime descriptor address since two distinct types may print the same.
func flightKey(key interface{}) string {
	switch k := key.(type) {
	case reflect.Type:
		return fmt.Sprintf("%p", k)
	case Pair:
		return fmt.Sprintf("%p>%p", k.From, k.To)
	case string:
		return k
	default:
		return fmt.Sprintf("%T:%#v", key, key)
	}
}
