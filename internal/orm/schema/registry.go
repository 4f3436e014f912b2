package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry maps names to record types so tooling can enumerate them
type Registry struct {
	types    map[string]reflect.Type
	resolver *Resolver
	mu       sync.RWMutex
}

// NewRegistry creates a registry validating against resolver
func NewRegistry(resolver *Resolver) *Registry {
	return &Registry{
		types:    make(map[string]reflect.Type),
		resolver: resolver,
	}
}

// Register adds a record type under name. The type must resolve to a key
// schema; a type with no discoverable key is rejected.
func (r *Registry) Register(name string, t reflect.Type) error {
	rt, err := recordType(t)
	if err != nil {
		return err
	}

	// Validate before taking the lock; resolution is cached anyway
	if _, err := r.resolver.Resolve(rt); err != nil {
		return fmt.Errorf("record type %s rejected: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.types[name]; exists {
		if existing == rt {
			return nil
		}
		return fmt.Errorf("record type %s is already registered as %s", name, existing)
	}
	r.types[name] = rt
	return nil
}

// Get retrieves a record type by name
func (r *Registry) Get(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.types[name]
	return t, exists
}

// Schema returns the key schema of the named record type
func (r *Registry) Schema(name string) (*KeySchema, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("record type %s not found", name)
	}
	return r.resolver.Resolve(t)
}

// List returns the registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exists checks if a name is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.types[name]
	return exists
}

// Count returns the number of registered types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}

// Clear removes all registered types (useful for testing). Resolved key
// schemas stay cached in the resolver.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = make(map[string]reflect.Type)
}
