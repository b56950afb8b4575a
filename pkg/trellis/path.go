package trellis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PathPartType represents the type of path part
type PathPartType int

const (
	StaticPart PathPartType = iota
	ParameterPart
	WildcardPart
)

// PathPart represents a single part of a route path
type PathPart struct {
	Type      PathPartType
	Value     string // For static parts: the literal text, for parameters: the parameter name
	ParamType string // For parameters: the type (e.g., "int", "uuid"), empty for untyped
}

// Path is a route path. Parameters are written as {name}, {name:type} or
// :name; {*} and a trailing * are catch-all wildcards.
type Path string

// Raw returns the original path
func (p Path) Raw() string {
	return string(p)
}

// Parts parses the path and returns the individual parts
func (p Path) Parts() []PathPart {
	path := string(p)
	var parts []PathPart

	i := 0
	for i < len(path) {
		switch {
		case path[i] == '{':
			j := strings.IndexByte(path[i:], '}')
			if j == -1 {
				// Malformed, treat the rest as static
				parts = appendStatic(parts, path[i:])
				i = len(path)
				continue
			}
			content := path[i+1 : i+j]
			if content == "*" {
				parts = append(parts, PathPart{Type: WildcardPart, Value: "*"})
			} else {
				name, typ, _ := strings.Cut(content, ":")
				parts = append(parts, PathPart{
					Type:      ParameterPart,
					Value:     strings.TrimSpace(name),
					ParamType: strings.TrimSpace(typ),
				})
			}
			i += j + 1
		case path[i] == ':' && (i == 0 || path[i-1] == '/'):
			j := i + 1
			for j < len(path) && path[j] != '/' {
				j++
			}
			parts = append(parts, PathPart{Type: ParameterPart, Value: path[i+1 : j]})
			i = j
		case path[i] == '*' && (i == 0 || path[i-1] == '/'):
			parts = append(parts, PathPart{Type: WildcardPart, Value: "*"})
			i = len(path)
		default:
			start := i
			for i < len(path) && path[i] != '{' && !(path[i] == ':' && path[i-1] == '/') && !(path[i] == '*' && path[i-1] == '/') {
				i++
			}
			parts = appendStatic(parts, path[start:i])
		}
	}

	return parts
}

func appendStatic(parts []PathPart, s string) []PathPart {
	if n := len(parts); n > 0 && parts[n-1].Type == StaticPart {
		parts[n-1].Value += s
		return parts
	}
	return append(parts, PathPart{Type: StaticPart, Value: s})
}

// Params returns the parameter parts of the path.
func (p Path) Params() []PathPart {
	var params []PathPart
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			params = append(params, part)
		}
	}
	return params
}

// Format renders the path for a router, using param for parameters and
// wildcard for catch-alls.
func (p Path) Format(param func(name string) string, wildcard string) string {
	var b strings.Builder
	for _, part := range p.Parts() {
		switch part.Type {
		case ParameterPart:
			b.WriteString(param(part.Value))
		case WildcardPart:
			b.WriteString(wildcard)
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String()
}

// ColonPath renders the path with :name parameters, as gin, echo and fiber
// expect.
func (p Path) ColonPath(wildcard string) string {
	return p.Format(func(name string) string { return ":" + name }, wildcard)
}

// BracePath renders the path with {name} parameters, as chi expects.
func (p Path) BracePath() string {
	return p.Format(func(name string) string { return "{" + name + "}" }, "*")
}

// JoinPath appends child to parent without doubling the separator.
func JoinPath(parent, child string) string {
	if strings.HasSuffix(parent, "/") && strings.HasPrefix(child, "/") {
		return parent + child[1:]
	}
	return parent + child
}

// ImplicitPath derives an endpoint path from a member name. The name must
// start with the lowercase method name, or its title-case form for exported
// Go methods; the remainder with its first rune lowered becomes the path.
func ImplicitPath(method Method, member string) (string, bool) {
	lower := method.Lower()
	if lower == "" {
		return "", false
	}
	title := strings.ToUpper(lower[:1]) + lower[1:]

	var rest string
	switch {
	case strings.HasPrefix(member, lower):
		rest = member[len(lower):]
	case strings.HasPrefix(member, title):
		rest = member[len(title):]
	default:
		return "", false
	}

	if rest == "" {
		return "/", true
	}
	r, size := utf8.DecodeRuneInString(rest)
	return "/" + string(unicode.ToLower(r)) + rest[size:], true
}
