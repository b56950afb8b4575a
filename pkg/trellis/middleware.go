package trellis

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Middleware is a middleware reference stored in metadata. Func is nil for
// middleware declared by name only; those resolve against a
// MiddlewareRegistry when the descriptor is read.
type Middleware struct {
	Name string
	Func MiddlewareFunc
}

// Named returns a reference to a middleware registered under name.
func Named(name string) Middleware {
	return Middleware{Name: name}
}

// Func wraps a middleware function, optionally naming it for diagnostics.
func Func(fn MiddlewareFunc, name ...string) Middleware {
	m := Middleware{Func: fn}
	if len(name) > 0 {
		m.Name = name[0]
	}
	return m
}

// Chain composes middlewares so the first one runs first.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Terminal is the handler that ends an endware chain.
func Terminal(RequestContext) error {
	return nil
}

// WithEndwares runs handler and, when it succeeds, the endwares in order.
func WithEndwares(handler HandlerFunc, endwares ...MiddlewareFunc) HandlerFunc {
	if len(endwares) == 0 {
		return handler
	}
	tail := Chain(endwares...)(Terminal)
	return func(c RequestContext) error {
		if err := handler(c); err != nil {
			return err
		}
		return tail(c)
	}
}

// MiddlewareRegistry provides access to middleware registered by name
type MiddlewareRegistry interface {
	// Register adds a middleware to the registry
	Register(name string, fn MiddlewareFunc) error

	// Get retrieves a middleware by name
	Get(name string) (MiddlewareFunc, bool)

	// Names returns all registered names, sorted
	Names() []string
}

// inMemoryMiddlewareRegistry implements MiddlewareRegistry
type inMemoryMiddlewareRegistry struct {
	mu          sync.RWMutex
	middlewares map[string]MiddlewareFunc
}

// NewMiddlewareRegistry creates a new in-memory middleware registry
func NewMiddlewareRegistry() MiddlewareRegistry {
	return &inMemoryMiddlewareRegistry{
		middlewares: make(map[string]MiddlewareFunc),
	}
}

func (r *inMemoryMiddlewareRegistry) Register(name string, fn MiddlewareFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("middleware name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("middleware '%s' has a nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.middlewares[name]; exists {
		return fmt.Errorf("middleware '%s' is already registered", name)
	}
	r.middlewares[name] = fn
	return nil
}

func (r *inMemoryMiddlewareRegistry) Get(name string) (MiddlewareFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, exists := r.middlewares[name]
	return fn, exists
}

func (r *inMemoryMiddlewareRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.middlewares))
	for name := range r.middlewares {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMiddlewareRegistry is the global middleware registry
var DefaultMiddlewareRegistry = NewMiddlewareRegistry()

// RegisterMiddleware registers a middleware with the global registry
func RegisterMiddleware(name string, fn MiddlewareFunc) error {
	return DefaultMiddlewareRegistry.Register(name, fn)
}

// resolve turns references into functions, failing on unknown names.
func resolve(reg MiddlewareRegistry, entity Entity, member string, refs []Middleware) ([]MiddlewareFunc, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	fns := make([]MiddlewareFunc, 0, len(refs))
	var unknown []string
	for _, ref := range refs {
		if ref.Func != nil {
			fns = append(fns, ref.Func)
			continue
		}
		if reg != nil {
			if fn, ok := reg.Get(ref.Name); ok {
				fns = append(fns, fn)
				continue
			}
		}
		unknown = append(unknown, ref.Name)
	}
	if len(unknown) > 0 {
		err := newError(MetadataMissingCode, entity, member, "unknown middleware(s): %s", strings.Join(unknown, ", "))
		if reg != nil {
			err.withHints(fmt.Sprintf("registered middleware: %s", strings.Join(reg.Names(), ", ")))
		}
		return nil, err
	}
	return fns, nil
}
