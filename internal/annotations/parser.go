package annotations

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix introduces every annotation after the comment marker.
const Prefix = "trellis::"

// annotationAST is the raw grammar of an annotation line:
//
//	//trellis::<type> [positional...] [-Name[=value]...]
type annotationAST struct {
	Type       string      `parser:"Comment Prefix @Word"`
	Positional []*valueAST `parser:"@@*"`
	Params     []*paramAST `parser:"@@*"`
}

type valueAST struct {
	Quoted *string `parser:"  @String"`
	Word   *string `parser:"| @Word"`
}

func (v *valueAST) String() string {
	if v.Quoted != nil {
		return *v.Quoted
	}
	if v.Word != nil {
		return *v.Word
	}
	return ""
}

type paramAST struct {
	Flag  string    `parser:"@Flag"`
	Value *valueAST `parser:"( Equals @@ )?"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Prefix", Pattern: `trellis::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Flag", Pattern: `-[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s="]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser turns annotation lines into ParsedAnnotations checked against a
// schema registry
type Parser struct {
	parser   *participle.Parser[annotationAST]
	registry AnnotationRegistry
}

// NewParser creates a parser validating against registry, or the default
// registry when registry is nil
func NewParser(registry AnnotationRegistry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		parser: participle.MustBuild[annotationAST](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
		registry: registry,
	}
}

var defaultParser = NewParser(nil)

// Parse parses line with the default registry
func Parse(line string) (*ParsedAnnotation, error) {
	return defaultParser.Parse(line)
}

// IsAnnotation reports whether line looks like a trellis annotation
func IsAnnotation(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "//") {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line[2:]), Prefix)
}

// Parse parses one annotation line
func (p *Parser) Parse(line string) (*ParsedAnnotation, error) {
	raw := strings.TrimSpace(line)
	if !IsAnnotation(raw) {
		return nil, syntaxError(raw, nil, "annotations look like //"+Prefix+"route /path")
	}

	ast, err := p.parser.ParseString("", raw)
	if err != nil {
		return nil, syntaxError(raw, err, "positional arguments must come before -Name=value parameters")
	}

	annotationType, err := ParseAnnotationType(ast.Type)
	if err != nil {
		return nil, &Error{Code: SchemaErrorCode, Raw: raw, Msg: err.Error(), Hint: "known types: route, endpoint, static"}
	}
	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, &Error{Code: SchemaErrorCode, Raw: raw, Msg: err.Error()}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]any),
		Raw:        raw,
	}

	if len(ast.Positional) > len(schema.Positional) {
		return nil, validationError(raw, "%s takes at most %d positional argument(s), got %d",
			annotationType, len(schema.Positional), len(ast.Positional))
	}
	for i, value := range ast.Positional {
		parsed.Parameters[schema.Positional[i]] = value.String()
	}

	for _, param := range ast.Params {
		name := strings.TrimPrefix(param.Flag, "-")
		spec, exists := schema.Parameters[name]
		if !exists || isPositional(schema, name) {
			return nil, validationError(raw, "unknown parameter '%s' for annotation type %s", name, annotationType)
		}
		if param.Value == nil {
			return nil, validationError(raw, "parameter '%s' requires a value", name)
		}
		parsed.Parameters[name] = convert(spec.Type, param.Value.String())
	}

	if err := validate(parsed, schema); err != nil {
		return nil, err
	}
	return parsed, nil
}

func isPositional(schema AnnotationSchema, name string) bool {
	for _, p := range schema.Positional {
		if p == name {
			return true
		}
	}
	return false
}

func convert(t ParameterType, raw string) any {
	if t != StringSliceType {
		return raw
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// validate checks required parameters and runs the per-parameter validators
func validate(parsed *ParsedAnnotation, schema AnnotationSchema) error {
	for name, spec := range schema.Parameters {
		value, exists := parsed.Parameters[name]
		if !exists {
			if spec.Required {
				return validationError(parsed.Raw, "missing required parameter '%s' for annotation type %s", name, parsed.Type)
			}
			continue
		}
		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				e := validationError(parsed.Raw, "parameter '%s' validation failed", name)
				e.Err = err
				return e
			}
		}
	}
	return nil
}
