package trellis

import (
	"reflect"
)

// Descriptor is what the loader resolves an exported value to. It is one of
// *RouteDescriptor, *StaticDescriptor or Unrecognized.
type Descriptor interface {
	descriptor()
}

// RouteDescriptor is the entity-level metadata of a route.
type RouteDescriptor struct {
	Entity      Entity
	Prefix      string
	Middlewares []Middleware
	Endwares    []Middleware
	Nested      []any
}

// StaticDescriptor is the metadata of a static mount.
type StaticDescriptor struct {
	Entity Entity
	Path   string
	Dir    string
}

// Unrecognized wraps a value that carries no known kind.
type Unrecognized struct {
	Name    string
	Payload any
}

func (*RouteDescriptor) descriptor()  {}
func (*StaticDescriptor) descriptor() {}
func (Unrecognized) descriptor()      {}

// EndpointDescriptor is the member-level metadata of one endpoint.
type EndpointDescriptor struct {
	Member      string
	Method      Method
	Path        string
	HasPath     bool
	Middlewares []Middleware
	Endwares    []Middleware
	Nested      []any
	Handler     HandlerFunc
}

// Describe reads the entity-level metadata of v. Values without a kind, or
// with a kind this package does not know, describe as Unrecognized.
func (s *Store) Describe(v any) (Descriptor, error) {
	e := EntityOf(v)
	if e.IsZero() {
		return Unrecognized{Name: "<nil>", Payload: v}, nil
	}

	kind, _ := s.GetString(e, "", AttrKind)
	switch kind {
	case KindRoute:
		prefix, ok := s.GetString(e, "", AttrPath)
		if !ok {
			return nil, missing(e, "", AttrPath)
		}
		nested, _ := s.Get(e, "", AttrNested)
		list, _ := nested.([]any)
		return &RouteDescriptor{
			Entity:      e,
			Prefix:      prefix,
			Middlewares: s.middlewareList(e, "", AttrMiddlewares),
			Endwares:    s.middlewareList(e, "", AttrEndwares),
			Nested:      list,
		}, nil
	case KindStatic:
		path, ok := s.GetString(e, "", AttrPath)
		if !ok {
			return nil, missing(e, "", AttrPath)
		}
		dir, ok := s.GetString(e, "", AttrPointer)
		if !ok {
			return nil, missing(e, "", AttrPointer)
		}
		return &StaticDescriptor{Entity: e, Path: path, Dir: dir}, nil
	default:
		return Unrecognized{Name: e.String(), Payload: v}, nil
	}
}

// Endpoints returns the members of entity declared as endpoints, in
// declaration order.
func (s *Store) Endpoints(entity Entity) []string {
	var members []string
	for _, member := range s.Members(entity) {
		if kind, _ := s.GetString(entity, member, AttrKind); kind == KindEndpoint {
			members = append(members, member)
		}
	}
	return members
}

// DescribeEndpoint reads the metadata of one endpoint member. The handler is
// the explicitly bound function if any, otherwise the method named member
// on the entity's declared instance; it is nil when neither exists.
func (s *Store) DescribeEndpoint(entity Entity, member string) (*EndpointDescriptor, error) {
	v, ok := s.Get(entity, member, AttrMethod)
	if !ok {
		return nil, missing(entity, member, AttrMethod)
	}
	method, ok := v.(Method)
	if !ok {
		return nil, newError(MetadataMissingCode, entity, member, "method attribute holds %T, not a Method", v)
	}

	d := &EndpointDescriptor{
		Member:      member,
		Method:      method,
		Middlewares: s.middlewareList(entity, member, AttrMiddlewares),
		Endwares:    s.middlewareList(entity, member, AttrEndwares),
	}
	d.Path, d.HasPath = s.GetString(entity, member, AttrPath)
	if nested, ok := s.Get(entity, member, AttrNested); ok {
		d.Nested, _ = nested.([]any)
	}

	if h, ok := s.Get(entity, member, AttrHandler); ok {
		d.Handler, _ = h.(HandlerFunc)
	}
	if d.Handler == nil {
		inst, _ := s.Get(entity, "", AttrInstance)
		d.Handler = methodHandler(inst, member)
	}
	return d, nil
}

// methodHandler resolves member as a method of inst with the HandlerFunc
// signature.
func methodHandler(inst any, member string) HandlerFunc {
	if inst == nil {
		return nil
	}
	m := reflect.ValueOf(inst).MethodByName(member)
	if !m.IsValid() {
		return nil
	}
	switch fn := m.Interface().(type) {
	case func(RequestContext) error:
		return fn
	default:
		return nil
	}
}
