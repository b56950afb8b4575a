package trellis

import (
	"fmt"
	"strings"
)

// RegisterRoute builds the subtree of route value v and mounts it on parent.
// Nothing is mounted or reported when any part of the subtree fails.
func (r *Registrar) RegisterRoute(parent Router, v any) (*RouteReport, error) {
	report, err := r.registerRoute(parent, v, "", nil)
	if err != nil {
		return nil, err
	}
	r.emit(report)
	return report, nil
}

// emit reports nested routes before the route that contains them.
func (r *Registrar) emit(report *RouteReport) {
	for _, nested := range report.Nested {
		r.emit(nested)
	}
	r.reporter.Route(report)
}

func (r *Registrar) registerRoute(parent Router, v any, parentPath string, visiting []Entity) (*RouteReport, error) {
	desc, err := r.store.Describe(v)
	if err != nil {
		return nil, err
	}
	route, ok := desc.(*RouteDescriptor)
	if !ok {
		return nil, newError(KindMismatchCode, EntityOf(v), "", "not a route")
	}

	for _, e := range visiting {
		if e == route.Entity {
			return nil, newError(CycleDetectedCode, route.Entity, "",
				"nested routes form a cycle: %s", cyclePath(visiting, route.Entity))
		}
	}
	visiting = append(visiting, route.Entity)

	reg := r.store.registry()
	middlewares, err := resolve(reg, route.Entity, "", route.Middlewares)
	if err != nil {
		return nil, err
	}
	endwares, err := resolve(reg, route.Entity, "", route.Endwares)
	if err != nil {
		return nil, err
	}

	report := &RouteReport{
		FullPath:     JoinPath(parentPath, route.Prefix),
		Prefix:       route.Prefix,
		Entity:       route.Entity,
		Middlewares:  len(middlewares),
		Endwares:     len(endwares),
		NestedRoutes: len(route.Nested),
	}

	child := parent.Child()
	if len(middlewares) > 0 {
		child.Use(middlewares...)
	}

	for _, nested := range route.Nested {
		nr, err := r.registerRoute(child, nested, report.FullPath, visiting)
		if err != nil {
			return nil, err
		}
		report.Nested = append(report.Nested, nr)
	}

	for _, member := range r.store.Endpoints(route.Entity) {
		ep, err := r.RegisterEndpoint(child, route.Entity, member)
		if err != nil {
			return nil, err
		}
		report.Endpoints = append(report.Endpoints, ep)
	}

	if len(endwares) > 0 {
		child.UseEnd(endwares...)
	}

	parent.Mount(route.Prefix, child)
	return report, nil
}

func cyclePath(visiting []Entity, repeat Entity) string {
	names := make([]string, 0, len(visiting)+1)
	for _, e := range visiting {
		names = append(names, e.String())
	}
	names = append(names, repeat.String())
	return strings.Join(names, " -> ")
}

// String renders a one-line summary, as the routes command prints it.
func (rr *RouteReport) String() string {
	return fmt.Sprintf("%s (middlewares=%d endwares=%d nested=%d endpoints=%d)",
		rr.FullPath, rr.Middlewares, rr.Endwares, rr.NestedRoutes, len(rr.Endpoints))
}
