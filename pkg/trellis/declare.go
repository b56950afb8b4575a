package trellis

// declaration collects the options of one declaration call before it is
// written to the store in a single pass.
type declaration struct {
	path        *string
	middlewares []Middleware
	endwares    []Middleware
	nested      []any
	handler     HandlerFunc
}

// Option configures a route or endpoint declaration.
type Option func(*declaration)

// At sets an explicit path. Endpoints declared without one derive their path
// from the member name.
func At(path string) Option {
	return func(d *declaration) {
		d.path = &path
	}
}

// Use appends middleware functions, in invocation order.
func Use(fns ...MiddlewareFunc) Option {
	return func(d *declaration) {
		for _, fn := range fns {
			d.middlewares = append(d.middlewares, Func(fn))
		}
	}
}

// UseNamed appends middleware registered by name.
func UseNamed(names ...string) Option {
	return func(d *declaration) {
		for _, name := range names {
			d.middlewares = append(d.middlewares, Named(name))
		}
	}
}

// UseRefs appends middleware references as-is.
func UseRefs(refs ...Middleware) Option {
	return func(d *declaration) {
		d.middlewares = append(d.middlewares, refs...)
	}
}

// End appends endwares. Endwares are route-scoped.
func End(fns ...MiddlewareFunc) Option {
	return func(d *declaration) {
		for _, fn := range fns {
			d.endwares = append(d.endwares, Func(fn))
		}
	}
}

// EndNamed appends endwares registered by name.
func EndNamed(names ...string) Option {
	return func(d *declaration) {
		for _, name := range names {
			d.endwares = append(d.endwares, Named(name))
		}
	}
}

// Nest appends nested route values, registered in the given order.
func Nest(routes ...any) Option {
	return func(d *declaration) {
		d.nested = append(d.nested, routes...)
	}
}

// Handler binds an explicit handler to an endpoint instead of resolving the
// member as a method of the route value.
func Handler(fn HandlerFunc) Option {
	return func(d *declaration) {
		d.handler = fn
	}
}

func collect(opts []Option) *declaration {
	d := &declaration{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (s *Store) write(e Entity, member string, d *declaration) {
	if d.path != nil {
		s.Set(e, member, AttrPath, *d.path)
	}
	if d.middlewares != nil {
		s.Set(e, member, AttrMiddlewares, d.middlewares)
	}
	if d.endwares != nil {
		s.Set(e, member, AttrEndwares, d.endwares)
	}
	if d.nested != nil {
		s.Set(e, member, AttrNested, d.nested)
	}
	if d.handler != nil {
		s.Set(e, member, AttrHandler, d.handler)
	}
}

// Route declares v as a route mounted at prefix. At and Handler are endpoint
// options: prefix always wins over At, and a Handler is dropped.
func (s *Store) Route(v any, prefix string, opts ...Option) Entity {
	e := EntityOf(v)
	d := collect(opts)
	d.path = &prefix
	d.handler = nil

	s.Set(e, "", AttrKind, KindRoute)
	s.Set(e, "", AttrInstance, v)
	s.write(e, "", d)
	return e
}

// Endpoint declares member of v as an endpoint for method.
func (s *Store) Endpoint(v any, member string, method Method, opts ...Option) Entity {
	e := EntityOf(v)

	s.Set(e, member, AttrKind, KindEndpoint)
	s.Set(e, member, AttrMethod, method)
	if _, ok := s.Get(e, "", AttrInstance); !ok {
		s.Set(e, "", AttrInstance, v)
	}
	s.write(e, member, collect(opts))
	return e
}

// Static declares v as a static mount serving dir at path.
func (s *Store) Static(v any, path, dir string) Entity {
	e := EntityOf(v)
	s.Set(e, "", AttrKind, KindStatic)
	s.Set(e, "", AttrPath, path)
	s.Set(e, "", AttrPointer, dir)
	return e
}

// Route declares a route on DefaultStore.
func Route(v any, prefix string, opts ...Option) Entity {
	return DefaultStore.Route(v, prefix, opts...)
}

// Endpoint declares an endpoint on DefaultStore.
func Endpoint(v any, member string, method Method, opts ...Option) Entity {
	return DefaultStore.Endpoint(v, member, method, opts...)
}

// Static declares a static mount on DefaultStore.
func Static(v any, path, dir string) Entity {
	return DefaultStore.Static(v, path, dir)
}
