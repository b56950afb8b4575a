// Package trellis turns declarative route and endpoint metadata into a
// composable routing tree that can be mounted on gin, echo, fiber or chi.
package trellis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP method an endpoint can be declared for.
type Method string

const (
	GET     Method = "GET"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	PATCH   Method = "PATCH"
	OPTIONS Method = "OPTIONS"
	HEAD    Method = "HEAD"
	ALL     Method = "ALL"
)

// Methods lists every supported method in declaration order.
var Methods = []Method{GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD, ALL}

// ParseMethod converts a case-insensitive method name to a Method
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown HTTP method: %q", s)
}

// Lower returns the lowercase method name used by the implicit path rule.
func (m Method) Lower() string {
	return strings.ToLower(string(m))
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware. Calling next is the
// continue signal; returning without calling it ends the chain.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// RequestContext provides a framework-agnostic interface for handling HTTP requests
type RequestContext interface {
	// Request data
	Method() string
	Path() string
	RealIP() string

	// Parameters
	Param(key string) string
	QueryParam(key string) string

	Request() RequestInterface
	Response() ResponseInterface

	// Body handling
	Bind(i any) error

	// Context data
	Get(key string) any
	Set(key string, val any)

	// Context returns the request-scoped context.Context
	Context() context.Context
}

// RequestInterface provides access to the underlying request
type RequestInterface interface {
	Header(key string) string
	SetHeader(key, value string)
	Body() []byte
	ContentType() string
}

// ResponseInterface provides response writing capabilities
type ResponseInterface interface {
	Status() int
	SetStatus(code int)

	Header(key string) string
	SetHeader(key, value string)

	JSON(code int, i any) error
	String(code int, s string) error
	Blob(code int, contentType string, b []byte) error
	NoContent(code int) error

	Written() bool
}

// HTTPError represents an HTTP error with status code and message
type HTTPError struct {
	Code     int   `json:"code"`
	Message  any   `json:"message"`
	Internal error `json:"-"`
}

// Error makes HTTPError implement the error interface
func (he *HTTPError) Error() string {
	if he.Internal != nil {
		return he.Internal.Error()
	}
	return fmt.Sprint(he.Message)
}

// Unwrap exposes the internal cause.
func (he *HTTPError) Unwrap() error {
	return he.Internal
}

// NewHTTPError creates a new HTTPError instance
func NewHTTPError(code int, message ...any) *HTTPError {
	he := &HTTPError{Code: code}
	if len(message) > 0 {
		he.Message = message[0]
	} else {
		he.Message = http.StatusText(code)
	}
	if len(message) > 1 {
		if err, ok := message[1].(error); ok {
			he.Internal = err
		}
	}
	return he
}

// ErrorBody is the JSON payload adapters write for a failed handler.
func ErrorBody(err error) (int, map[string]any) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code, map[string]any{"error": he.Message}
	}
	return http.StatusInternalServerError, map[string]any{"error": err.Error()}
}
