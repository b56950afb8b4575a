package trellis

import (
	"github.com/toyz/trellis/internal/annotations"
)

// Annotate declares v from an entity-level annotation line such as
//
//	//trellis::route /api -Middleware=RequestID -Endware=AccessLog
//	//trellis::static / ./public
//
// Extra options are applied after the annotation's own.
func (s *Store) Annotate(v any, line string, opts ...Option) (Entity, error) {
	e := EntityOf(v)
	parsed, err := annotations.Parse(line)
	if err != nil {
		return e, annotationError(e, "", err)
	}

	switch parsed.Type {
	case annotations.RouteAnnotation:
		routeOpts := []Option{
			UseNamed(parsed.GetStringSlice("Middleware")...),
			EndNamed(parsed.GetStringSlice("Endware")...),
		}
		return s.Route(v, parsed.GetString("path"), append(routeOpts, opts...)...), nil
	case annotations.StaticAnnotation:
		if len(opts) > 0 {
			return e, newError(KindMismatchCode, e, "", "static mounts take no options")
		}
		return s.Static(v, parsed.GetString("path"), parsed.GetString("dir")), nil
	default:
		return e, newError(KindMismatchCode, e, "", "%s annotations belong to members", parsed.Type).
			withHints("use AnnotateMember")
	}
}

// AnnotateMember declares member of v from an endpoint annotation line such
// as
//
//	//trellis::endpoint POST /signup -Middleware=JSONBody
func (s *Store) AnnotateMember(v any, member, line string, opts ...Option) (Entity, error) {
	e := EntityOf(v)
	parsed, err := annotations.Parse(line)
	if err != nil {
		return e, annotationError(e, member, err)
	}
	if parsed.Type != annotations.EndpointAnnotation {
		return e, newError(KindMismatchCode, e, member, "%s annotations belong to entities", parsed.Type).
			withHints("use Annotate")
	}

	method, err := ParseMethod(parsed.GetString("method"))
	if err != nil {
		return e, annotationError(e, member, err)
	}

	var endpointOpts []Option
	if parsed.HasParameter("path") {
		endpointOpts = append(endpointOpts, At(parsed.GetString("path")))
	}
	if names := parsed.GetStringSlice("Middleware"); len(names) > 0 {
		endpointOpts = append(endpointOpts, UseNamed(names...))
	}
	return s.Endpoint(v, member, method, append(endpointOpts, opts...)...), nil
}

func annotationError(e Entity, member string, err error) *RegistrationError {
	return newError(AnnotationSyntaxCode, e, member, "invalid annotation").
		withCause(err).
		withHints("expected //trellis::route <path>, //trellis::endpoint <METHOD> [path] or //trellis::static <path> <dir>")
}

// Annotate declares v on DefaultStore from an annotation line.
func Annotate(v any, line string, opts ...Option) (Entity, error) {
	return DefaultStore.Annotate(v, line, opts...)
}

// AnnotateMember declares member of v on DefaultStore from an annotation line.
func AnnotateMember(v any, member, line string, opts ...Option) (Entity, error) {
	return DefaultStore.AnnotateMember(v, member, line, opts...)
}

// MustAnnotate is Annotate for init functions; it panics on error.
func MustAnnotate(v any, line string, opts ...Option) Entity {
	e, err := Annotate(v, line, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// MustAnnotateMember is AnnotateMember for init functions; it panics on error.
func MustAnnotateMember(v any, member, line string, opts ...Option) Entity {
	e, err := AnnotateMember(v, member, line, opts...)
	if err != nil {
		panic(err)
	}
	return e
}
