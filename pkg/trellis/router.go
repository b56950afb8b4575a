package trellis

// Router is the capability the registrars build against. Implementations
// own dispatch; the registrars only wire handlers, middleware and children
// together.
type Router interface {
	// Child returns a fresh, unmounted router of the same implementation.
	Child() Router

	// Mount attaches child at prefix.
	Mount(prefix string, child Router)

	// Handle registers handler for method and path behind middlewares.
	Handle(method Method, path string, handler HandlerFunc, middlewares ...MiddlewareFunc)

	// Use applies middlewares to everything registered after this call in
	// the same scope.
	Use(middlewares ...MiddlewareFunc)

	// UseEnd applies endwares that run after a handler of this scope
	// returns without error.
	UseEnd(endwares ...MiddlewareFunc)

	// Static serves the files under dir at path.
	Static(path, dir string)
}
