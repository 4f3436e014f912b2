package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/orm/typecache"
)

var (
	keyDeclarerType       = reflect.TypeOf((*KeyDeclarer)(nil)).Elem()
	metadataCompanionType = reflect.TypeOf((*MetadataCompanion)(nil)).Elem()
)

// Resolver discovers and caches key schemas and property lists per type
type Resolver struct {
	opts    Options
	logger  *zap.Logger
	schemas *typecache.Cache[reflect.Type, *KeySchema]
	props   *typecache.Cache[reflect.Type, []Property]

	// explicit registrations, checked before anything else
	declared   map[reflect.Type][]string
	declaredMu sync.RWMutex
}

// NewResolver creates a resolver. A nil logger disables logging.
func NewResolver(opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		opts:     opts.withDefaults(),
		logger:   logger,
		schemas:  typecache.New[reflect.Type, *KeySchema]("key-schema"),
		props:    typecache.New[reflect.Type, []Property]("properties"),
		declared: make(map[reflect.Type][]string),
	}
}

// Options returns the effective options
func (r *Resolver) Options() Options {
	return r.opts
}

// Register declares the ordered key fields of a record type. It must run
// before the type is first resolved, typically at startup.
func (r *Resolver) Register(t reflect.Type, fields ...string) error {
	t, err := recordType(t)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "no key fields given"}
	}
	if r.schemas.Contains(t) {
		return &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "key schema already resolved"}
	}

	r.declaredMu.Lock()
	defer r.declaredMu.Unlock()

	if _, exists := r.declared[t]; exists {
		return &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "key already registered"}
	}
	r.declared[t] = append([]string(nil), fields...)
	return nil
}

// Resolve returns the key schema of t (a struct type or a pointer to one)
func (r *Resolver) Resolve(t reflect.Type) (*KeySchema, error) {
	t, err := recordType(t)
	if err != nil {
		return nil, err
	}
	return r.schemas.Get(t, func() (*KeySchema, error) {
		start := time.Now()
		ks, err := r.build(t)
		if err != nil {
			r.logger.Warn("key schema resolution failed",
				zap.String("type", t.String()),
				zap.Error(err),
			)
			return nil, err
		}
		r.logger.Debug("key schema resolved",
			zap.String("type", t.String()),
			zap.Strings("keys", ks.Names()),
			zap.Stringer("source", ks.Source),
			zap.Duration("took", time.Since(start)),
		)
		return ks, nil
	})
}

// Properties returns every property of t in declaration order
func (r *Resolver) Properties(t reflect.Type) ([]Property, error) {
	t, err := recordType(t)
	if err != nil {
		return nil, err
	}
	return r.props.Get(t, func() ([]Property, error) {
		return collectProperties(t, r.opts)
	})
}

// Embedded returns the embedded struct pointers of t whose fields are
// not listed by Properties
func (r *Resolver) Embedded(t reflect.Type) ([]Property, error) {
	t, err := recordType(t)
	if err != nil {
		return nil, err
	}
	return collectEmbedded(t), nil
}

// Property returns the property of t with exactly the given name
func (r *Resolver) Property(t reflect.Type, name string) (Property, bool) {
	props, err := r.Properties(t)
	if err != nil {
		return Property{}, false
	}
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Resolved returns how many key schemas have been published
func (r *Resolver) Resolved() int {
	return r.schemas.Len()
}

func (r *Resolver) build(t reflect.Type) (*KeySchema, error) {
	props, err := r.Properties(t)
	if err != nil {
		return nil, err
	}

	// 1. explicit declaration
	if names, ok := r.declaration(t); ok {
		keys, err := pick(t, props, names)
		if err != nil {
			return nil, err
		}
		return &KeySchema{Type: t, Keys: keys, Source: SourceDeclared}, nil
	}

	// 2. key tags on the type itself
	if keys := tagged(props); len(keys) > 0 {
		return &KeySchema{Type: t, Keys: ordered(keys), Source: SourceTagged}, nil
	}

	// 3. key tags on a metadata companion
	keys, err := r.fromCompanion(t, props)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		return &KeySchema{Type: t, Keys: ordered(keys), Source: SourceCompanion}, nil
	}

	// 4. id-named fallback
	for _, p := range props {
		if strings.EqualFold(p.Name, r.opts.FallbackKey) {
			p.Key = true
			return &KeySchema{Type: t, Keys: []Property{p}, Source: SourceFallback}, nil
		}
	}

	return nil, &SchemaError{Type: t, Err: ErrNoKey}
}

// declaration returns explicitly declared key names, registered ones first
func (r *Resolver) declaration(t reflect.Type) ([]string, bool) {
	r.declaredMu.RLock()
	names, ok := r.declared[t]
	r.declaredMu.RUnlock()
	if ok {
		return names, true
	}

	if reflect.PointerTo(t).Implements(keyDeclarerType) {
		declarer := reflect.New(t).Interface().(KeyDeclarer)
		return declarer.EntityKey(), true
	}
	return nil, false
}

// fromCompanion reads key tags from the companion struct, matching fields by name
func (r *Resolver) fromCompanion(t reflect.Type, props []Property) ([]Property, error) {
	if !reflect.PointerTo(t).Implements(metadataCompanionType) {
		return nil, nil
	}

	companion := reflect.New(t).Interface().(MetadataCompanion).EntityMetadata()
	ct := reflect.TypeOf(companion)
	for ct != nil && ct.Kind() == reflect.Ptr {
		ct = ct.Elem()
	}
	if ct == nil || ct.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "metadata companion is not a struct"}
	}

	var keys []Property
	for _, p := range props {
		field, ok := ct.FieldByName(p.Name)
		if !ok {
			continue
		}
		tag, err := parseKeyTag(field.Tag.Get(r.opts.Tag))
		if err != nil {
			return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "companion " + p.Name + ": " + err.Error()}
		}
		if !tag.key {
			continue
		}
		p.Key = true
		p.Order = tag.order
		if _, ok := field.Tag.Lookup(r.opts.ColumnTag); ok {
			p.Column = columnName(field, r.opts.ColumnTag)
		}
		keys = append(keys, p)
	}
	return keys, nil
}

// pick returns the named properties in the given order
func pick(t reflect.Type, props []Property, names []string) ([]Property, error) {
	if len(names) == 0 {
		return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: "empty key declaration"}
	}

	keys := make([]Property, 0, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] {
			return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: fmt.Sprintf("field %s declared twice", name)}
		}
		seen[name] = true

		found := false
		for _, p := range props {
			if p.Name == name {
				p.Key = true
				p.Order = i
				keys = append(keys, p)
				found = true
				break
			}
		}
		if !found {
			return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: fmt.Sprintf("unknown key field %s", name)}
		}
	}
	return keys, nil
}

func tagged(props []Property) []Property {
	var keys []Property
	for _, p := range props {
		if p.Key {
			keys = append(keys, p)
		}
	}
	return keys
}

// ordered sorts by column order; ties keep declaration order
func ordered(keys []Property) []Property {
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Order < keys[j].Order
	})
	return keys
}

// recordType strips pointers and rejects non-struct types
func recordType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, &SchemaError{Type: t, Err: ErrNotRecord, Reason: "nil type"}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t, Err: ErrNotRecord, Reason: "kind " + t.Kind().String()}
	}
	return t, nil
}
