// Package annotations parses //trellis:: annotation lines into typed,
// schema-checked values.
package annotations

import "fmt"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	RouteAnnotation AnnotationType = iota
	EndpointAnnotation
	StaticAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case RouteAnnotation:
		return "route"
	case EndpointAnnotation:
		return "endpoint"
	case StaticAnnotation:
		return "static"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "route":
		return RouteAnnotation, nil
	case "endpoint":
		return EndpointAnnotation, nil
	case "static":
		return StaticAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// ParsedAnnotation represents a fully parsed annotation with type-safe parameters
type ParsedAnnotation struct {
	Type       AnnotationType // Annotation type enum
	Parameters map[string]any // Positional and named parameters, converted per schema
	Raw        string         // Original annotation text
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetStringSlice returns a string slice parameter value with optional default
func (p *ParsedAnnotation) GetStringSlice(paramName string, defaultValue ...[]string) []string {
	if value, exists := p.Parameters[paramName]; exists {
		if sliceValue, ok := value.([]string); ok {
			return sliceValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// HasParameter checks if a parameter exists
func (p *ParsedAnnotation) HasParameter(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	StringSliceType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case StringSliceType:
		return "[]string"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type        ParameterType   // Parameter type
	Required    bool            // Whether parameter is required
	Description string          // Parameter description
	Validator   func(any) error // Custom validator function
}

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Type        AnnotationType           // Annotation type enum
	Description string                   // Human-readable description
	Positional  []string                 // Parameter names bound to positional arguments, in order
	Parameters  map[string]ParameterSpec // Parameter specifications
	Examples    []string                 // Usage examples
}
