package annotations

import (
	"fmt"
	"strings"
)

// Methods accepted by //trellis::endpoint
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD", "ALL"}

func validatePath(v any) error {
	path := v.(string)
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with '/', got '%s'", path)
	}
	return nil
}

func validateNames(v any) error {
	for _, name := range v.([]string) {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("middleware list contains an empty name")
		}
	}
	return nil
}

// RouteAnnotationSchema defines the schema for //trellis::route annotations
var RouteAnnotationSchema = AnnotationSchema{
	Type:        RouteAnnotation,
	Description: "Declares a route mounted at a prefix",
	Positional:  []string{"path"},
	Parameters: map[string]ParameterSpec{
		"path": {
			Type:        StringType,
			Required:    true,
			Description: "Mount prefix (e.g., /api, /users)",
			Validator:   validatePath,
		},
		"Middleware": {
			Type:        StringSliceType,
			Description: "Comma-separated middleware names applied to the whole route",
			Validator:   validateNames,
		},
		"Endware": {
			Type:        StringSliceType,
			Description: "Comma-separated endware names run after a handler of the route succeeds",
			Validator:   validateNames,
		},
	},
	Examples: []string{
		"//trellis::route /api",
		"//trellis::route /api -Middleware=RequestID -Endware=AccessLog",
		"//trellis::route /users -Middleware=RequestID,Auth",
	},
}

// EndpointAnnotationSchema defines the schema for //trellis::endpoint annotations
var EndpointAnnotationSchema = AnnotationSchema{
	Type:        EndpointAnnotation,
	Description: "Declares a member as an HTTP endpoint",
	Positional:  []string{"method", "path"},
	Parameters: map[string]ParameterSpec{
		"method": {
			Type:        StringType,
			Required:    true,
			Description: "HTTP method (GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD, ALL)",
			Validator: func(v any) error {
				method := strings.ToUpper(v.(string))
				for _, valid := range Methods {
					if method == valid {
						return nil
					}
				}
				return fmt.Errorf("must be one of: %s, got '%s'", strings.Join(Methods, ", "), method)
			},
		},
		"path": {
			Type:        StringType,
			Description: "Endpoint path; derived from the member name when omitted",
			Validator:   validatePath,
		},
		"Middleware": {
			Type:        StringSliceType,
			Description: "Comma-separated middleware names applied to this endpoint",
			Validator:   validateNames,
		},
	},
	Examples: []string{
		"//trellis::endpoint GET",
		"//trellis::endpoint POST /signup -Middleware=JSONBody",
		"//trellis::endpoint GET /{name}/stats",
		"//trellis::endpoint DELETE /{id:int} -Middleware=Auth",
	},
}

// StaticAnnotationSchema defines the schema for //trellis::static annotations
var StaticAnnotationSchema = AnnotationSchema{
	Type:        StaticAnnotation,
	Description: "Serves a directory at a path",
	Positional:  []string{"path", "dir"},
	Parameters: map[string]ParameterSpec{
		"path": {
			Type:        StringType,
			Required:    true,
			Description: "Mount path",
			Validator:   validatePath,
		},
		"dir": {
			Type:        StringType,
			Required:    true,
			Description: "Directory to serve",
		},
	},
	Examples: []string{
		"//trellis::static / ./public",
		`//trellis::static /assets "./web/dist"`,
	},
}

// RegisterBuiltinSchemas registers all built-in annotation schemas
func RegisterBuiltinSchemas(r AnnotationRegistry) error {
	schemas := []AnnotationSchema{
		RouteAnnotationSchema,
		EndpointAnnotationSchema,
		StaticAnnotationSchema,
	}
	for _, schema := range schemas {
		if err := r.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type.String(), err)
		}
	}
	return nil
}
