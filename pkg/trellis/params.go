package trellis

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ParamParser validates a raw path parameter value.
type ParamParser func(value string) error

// BuiltinParsers maps typed path parameter names to their validators
var BuiltinParsers = map[string]ParamParser{
	"string": func(string) error { return nil },
	"int": func(v string) error {
		_, err := strconv.Atoi(v)
		return err
	},
	"float64": func(v string) error {
		_, err := strconv.ParseFloat(v, 64)
		return err
	},
	"uuid": func(v string) error {
		_, err := uuid.Parse(v)
		return err
	},
}

// ParserAliases maps convenient aliases to their canonical type names
var ParserAliases = map[string]string{
	"UUID":      "uuid",
	"uuid.UUID": "uuid",
	"float":     "float64",
	"double":    "float64",
}

// ResolveTypeAlias resolves a type alias to its canonical type name
func ResolveTypeAlias(typeName string) string {
	if actual, isAlias := ParserAliases[typeName]; isAlias {
		return actual
	}
	return typeName
}

// GetBuiltinParser returns a built-in parser by type name, checking aliases first
func GetBuiltinParser(typeName string) (ParamParser, bool) {
	parser, exists := BuiltinParsers[ResolveTypeAlias(typeName)]
	return parser, exists
}

// ParseInt reads a path parameter as int
func ParseInt(c RequestContext, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}

// ParseFloat reads a path parameter as float64
func ParseFloat(c RequestContext, name string) (float64, error) {
	return strconv.ParseFloat(c.Param(name), 64)
}

// ParseUUID reads a path parameter as uuid.UUID
func ParseUUID(c RequestContext, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

type typedParam struct {
	name   string
	typ    string
	parser ParamParser
}

// paramGuard builds middleware rejecting requests whose typed path
// parameters do not parse. It returns nil when the path has no typed
// parameters.
func paramGuard(path Path) (MiddlewareFunc, error) {
	var typed []typedParam
	for _, part := range path.Params() {
		if part.ParamType == "" {
			continue
		}
		parser, ok := GetBuiltinParser(part.ParamType)
		if !ok {
			return nil, fmt.Errorf("unknown parameter type %q for {%s}", part.ParamType, part.Value)
		}
		typed = append(typed, typedParam{name: part.Value, typ: ResolveTypeAlias(part.ParamType), parser: parser})
	}
	if len(typed) == 0 {
		return nil, nil
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(c RequestContext) error {
			for _, p := range typed {
				if err := p.parser(c.Param(p.name)); err != nil {
					return NewHTTPError(http.StatusBadRequest,
						fmt.Sprintf("invalid %s parameter '%s'", p.typ, p.name), err)
				}
			}
			return next(c)
		}
	}, nil
}
