// Package entity is the generic surface of recordkit. It turns record
// types (Go structs handled as *T) into key extraction, key matching,
// key-only projections, by-name mapping, graph clearing and structural
// comparison, all backed by functions compiled once per type.
//
// The package-level functions use the default Engine. Records and Mapping
// bind the same operations to a specific Engine.
//
// A record type without a discoverable key is a definition defect: the key
// operations panic with its *schema.SchemaError. Call Check at startup to
// surface the error instead.
package entity

import (
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/config"
	"github.com/conduit-lang/recordkit/internal/orm/accessor"
	"github.com/conduit-lang/recordkit/internal/orm/graph"
	"github.com/conduit-lang/recordkit/internal/orm/schema"
	"github.com/conduit-lang/recordkit/internal/orm/tracking"
)

// Engine owns the metadata and compiled-function caches for one set of
// resolver options. It is safe for concurrent use.
type Engine struct {
	logger   *zap.Logger
	resolver *schema.Resolver
	names    *schema.Registry
	access   *accessor.Registry
	walker   *graph.Walker
	compare  *tracking.Comparer
}

// New creates an engine. A nil logger disables logging.
func New(opts schema.Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := schema.NewResolver(opts, logger)
	walker := graph.NewWalker(resolver)
	return &Engine{
		logger:   logger,
		resolver: resolver,
		names:    schema.NewRegistry(resolver),
		access:   accessor.NewRegistry(resolver, logger),
		walker:   walker,
		compare:  tracking.NewComparer(walker),
	}
}

// NewFromConfig creates an engine with the schema options of cfg
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Engine {
	return New(cfg.SchemaOptions(), logger)
}

var defaultEngine atomic.Pointer[Engine]

func init() {
	defaultEngine.Store(New(schema.DefaultOptions(), nil))
}

// Default returns the engine used by the package-level functions
func Default() *Engine {
	return defaultEngine.Load()
}

// SetDefault replaces the default engine. Caches built by the previous
// engine are not carried over.
func SetDefault(e *Engine) {
	if e == nil {
		panic("entity: SetDefault with nil engine")
	}
	defaultEngine.Store(e)
}

// Logger returns the engine logger
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Resolver returns the key schema resolver
func (e *Engine) Resolver() *schema.Resolver {
	return e.resolver
}

// Names returns the registry of named record types
func (e *Engine) Names() *schema.Registry {
	return e.names
}

// Accessors returns the compiled-function registry
func (e *Engine) Accessors() *accessor.Registry {
	return e.access
}

// Walker returns the object graph walker
func (e *Engine) Walker() *graph.Walker {
	return e.walker
}

// Comparer returns the structural comparer
func (e *Engine) Comparer() *tracking.Comparer {
	return e.compare
}

// Stats reports cache sizes: resolved schemas plus every compiled-function cache
func (e *Engine) Stats() map[string]int {
	stats := e.access.Stats()
	stats["schemas"] = e.resolver.Resolved()
	stats["named-types"] = e.names.Count()
	return stats
}

// ClearByType resets every property declared as target anywhere in the
// graph reachable from obj, which must be a non-nil pointer to a struct
func (e *Engine) ClearByType(obj interface{}, target reflect.Type) error {
	return e.walker.ClearByType(obj, target)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
