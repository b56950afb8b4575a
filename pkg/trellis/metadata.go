package trellis

import (
	"reflect"
	"sync"
)

// Attribute names one kind of metadata attached to an entity or member.
type Attribute string

const (
	AttrKind        Attribute = "meta:type"
	AttrPath        Attribute = "meta:path"
	AttrMethod      Attribute = "meta:method"
	AttrMiddlewares Attribute = "meta:middlewares"
	AttrEndwares    Attribute = "meta:endwares"
	AttrNested      Attribute = "meta:nestedRoutes"
	AttrPointer     Attribute = "meta:pointer"
	AttrHandler     Attribute = "meta:handler"
	AttrInstance    Attribute = "meta:instance"
)

// Kind tags stored under AttrKind.
const (
	KindRoute    = "Route"
	KindStatic   = "StaticRoute"
	KindEndpoint = "endpoint"
)

// Entity identifies a route-like construct by its dynamic Go type.
type Entity struct {
	typ reflect.Type
}

// EntityOf returns the handle for v. Values of the same type share a handle.
func EntityOf(v any) Entity {
	if e, ok := v.(Entity); ok {
		return e
	}
	return Entity{typ: reflect.TypeOf(v)}
}

// IsZero reports whether e was derived from a nil value.
func (e Entity) IsZero() bool {
	return e.typ == nil
}

// String returns the Go type name of the entity.
func (e Entity) String() string {
	if e.typ == nil {
		return "<nil>"
	}
	return e.typ.String()
}

// Type returns the underlying reflect.Type.
func (e Entity) Type() reflect.Type {
	return e.typ
}

type metaKey struct {
	entity Entity
	member string
	attr   Attribute
}

// Store is the out-of-band metadata attached to entities and their members.
// Each (entity, member, attribute) key holds one value and later writes
// overwrite earlier ones. An empty member addresses the entity itself.
type Store struct {
	mu      sync.RWMutex
	values  map[metaKey]any
	members map[Entity][]string
	seen    map[Entity]map[string]struct{}

	middlewares MiddlewareRegistry
}

// NewStore creates an empty store resolving named middleware against
// DefaultMiddlewareRegistry.
func NewStore() *Store {
	return &Store{
		values:      make(map[metaKey]any),
		members:     make(map[Entity][]string),
		seen:        make(map[Entity]map[string]struct{}),
		middlewares: DefaultMiddlewareRegistry,
	}
}

// DefaultStore is the process-wide store used by the package-level
// declaration helpers.
var DefaultStore = NewStore()

// WithMiddlewareRegistry swaps the registry used to resolve named middleware.
func (s *Store) WithMiddlewareRegistry(r MiddlewareRegistry) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = r
	return s
}

// Set attaches value to (entity, member, attr).
func (s *Store) Set(entity Entity, member string, attr Attribute, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[metaKey{entity, member, attr}] = value
	if member == "" {
		return
	}
	seen, ok := s.seen[entity]
	if !ok {
		seen = make(map[string]struct{})
		s.seen[entity] = seen
	}
	if _, ok := seen[member]; !ok {
		seen[member] = struct{}{}
		s.members[entity] = append(s.members[entity], member)
	}
}

// Get returns the value stored under (entity, member, attr).
func (s *Store) Get(entity Entity, member string, attr Attribute) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[metaKey{entity, member, attr}]
	return v, ok
}

// Members returns the member names that carry metadata, in the order they
// were first written.
func (s *Store) Members(entity Entity) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.members[entity]...)
}

// GetString returns a string attribute. Non-string values read as absent.
func (s *Store) GetString(entity Entity, member string, attr Attribute) (string, bool) {
	v, ok := s.Get(entity, member, attr)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *Store) middlewareList(entity Entity, member string, attr Attribute) []Middleware {
	v, ok := s.Get(entity, member, attr)
	if !ok {
		return nil
	}
	list, _ := v.([]Middleware)
	return list
}

func (s *Store) registry() MiddlewareRegistry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.middlewares
}
