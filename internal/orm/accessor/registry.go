// Package accessor compiles and caches type-specialized functions for
// record types: key extraction, key equality, key-only projection, key
// injection and property-name based mapping.
//
// Each function is built once per record type (or type pair) from the
// resolved metadata and reused by every later call. Hot paths must go
// through the Registry instead of compiling ad hoc.
package accessor

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/orm/schema"
	"github.com/conduit-lang/recordkit/internal/orm/typecache"
)

// Registry holds the compiled functions for every record type seen so far
type Registry struct {
	resolver *schema.Resolver
	logger   *zap.Logger

	keys    *typecache.Cache[reflect.Type, *KeyFuncs]
	mappers *typecache.Cache[typecache.Pair, *Mapper]
	rollers *typecache.Cache[typecache.Pair, *Mapper]
	dicts   *typecache.Cache[reflect.Type, *DictMapper]
}

// NewRegistry creates a registry on top of resolver. A nil logger disables
// logging.
func NewRegistry(resolver *schema.Resolver, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		resolver: resolver,
		logger:   logger,
		keys:     typecache.New[reflect.Type, *KeyFuncs]("key-funcs"),
		mappers:  typecache.New[typecache.Pair, *Mapper]("mappers"),
		rollers:  typecache.New[typecache.Pair, *Mapper]("rollers"),
		dicts:    typecache.New[reflect.Type, *DictMapper]("dict-mappers"),
	}
}

// Resolver returns the schema resolver backing the registry
func (r *Registry) Resolver() *schema.Resolver {
	return r.resolver
}

// Keys returns the key functions of record type t. It fails with a
// *schema.SchemaError when t has no discoverable key.
func (r *Registry) Keys(t reflect.Type) (*KeyFuncs, error) {
	t = recordType(t)
	return r.keys.Get(t, func() (*KeyFuncs, error) {
		start := time.Now()
		ks, err := r.resolver.Resolve(t)
		if err != nil {
			return nil, err
		}
		kf := compileKeyFuncs(ks)
		r.logger.Debug("key functions compiled",
			zap.String("type", t.String()),
			zap.Int("keys", ks.Len()),
			zap.Duration("took", time.Since(start)),
		)
		return kf, nil
	})
}

// Mapper returns the by-name mapper from one record type into another
func (r *Registry) Mapper(from, to reflect.Type) (*Mapper, error) {
	return r.pairMapper(r.mappers, from, to, false)
}

// Roller returns the mapper that copies primitive-like properties by name
// onto an existing target
func (r *Registry) Roller(from, to reflect.Type) (*Mapper, error) {
	return r.pairMapper(r.rollers, from, to, true)
}

func (r *Registry) pairMapper(cache *typecache.Cache[typecache.Pair, *Mapper], from, to reflect.Type, primitiveOnly bool) (*Mapper, error) {
	pair := typecache.Pair{From: recordType(from), To: recordType(to)}
	return cache.Get(pair, func() (*Mapper, error) {
		start := time.Now()
		fromProps, err := r.resolver.Properties(pair.From)
		if err != nil {
			return nil, err
		}
		toProps, err := r.resolver.Properties(pair.To)
		if err != nil {
			return nil, err
		}
		m := compileMapper(pair.From, pair.To, fromProps, toProps, primitiveOnly)
		r.logger.Debug("mapper compiled",
			zap.Stringer("pair", pair),
			zap.Strings("fields", m.Fields()),
			zap.Bool("primitive_only", primitiveOnly),
			zap.Duration("took", time.Since(start)),
		)
		return m, nil
	})
}

// DictMapper returns the mapper from string-keyed maps into record type t
func (r *Registry) DictMapper(t reflect.Type) (*DictMapper, error) {
	t = recordType(t)
	return r.dicts.Get(t, func() (*DictMapper, error) {
		props, err := r.resolver.Properties(t)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("dict mapper compiled",
			zap.String("type", t.String()),
			zap.Int("fields", len(props)),
		)
		return &DictMapper{To: t, props: props}, nil
	})
}

// Stats reports how many functions have been compiled, per cache
func (r *Registry) Stats() map[string]int {
	return map[string]int{
		r.keys.Name():    r.keys.Len(),
		r.mappers.Name(): r.mappers.Len(),
		r.rollers.Name(): r.rollers.Len(),
		r.dicts.Name():   r.dicts.Len(),
	}
}

func recordType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
