package trellis

// RegisterEndpoint registers one endpoint member of entity on router.
func (r *Registrar) RegisterEndpoint(router Router, entity Entity, member string) (EndpointReport, error) {
	d, err := r.store.DescribeEndpoint(entity, member)
	if err != nil {
		return EndpointReport{}, err
	}

	if len(d.Endwares) > 0 || len(d.Nested) > 0 {
		return EndpointReport{}, newError(KindMismatchCode, entity, member,
			"endwares and nested routes are route-scoped").
			withHints("declare them on the route with trellis.End / trellis.Nest")
	}

	path := d.Path
	if !d.HasPath {
		implicit, ok := ImplicitPath(d.Method, member)
		if !ok {
			return EndpointReport{}, newError(ImplicitPathViolationCode, entity, member,
				"implicit path requires method prefix").
				withHints("name the member "+d.Method.Lower()+"... or "+titleMethod(d.Method)+"...",
					"or set the path explicitly with trellis.At")
		}
		path = implicit
	}

	if d.Handler == nil {
		return EndpointReport{}, newError(MetadataMissingCode, entity, member, "no handler bound").
			withHints("declare the endpoint with trellis.Handler(fn)",
				"or give the route type a method "+member+"(trellis.RequestContext) error")
	}

	middlewares, err := resolve(r.store.registry(), entity, member, d.Middlewares)
	if err != nil {
		return EndpointReport{}, err
	}

	guard, err := paramGuard(Path(path))
	if err != nil {
		return EndpointReport{}, newError(MetadataMissingCode, entity, member, "invalid path %q", path).
			withCause(err).
			withHints("supported parameter types: string, int, float64, uuid")
	}
	if guard != nil {
		middlewares = append(middlewares, guard)
	}

	router.Handle(d.Method, path, d.Handler, middlewares...)
	return EndpointReport{Method: d.Method, Path: path, Member: member}, nil
}

func titleMethod(m Method) string {
	lower := m.Lower()
	if lower == "" {
		return ""
	}
	return string(m[0]) + lower[1:]
}
