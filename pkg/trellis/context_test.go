package trellis

import (
	"context"
	"net/http"
)

// testContext is an in-memory RequestContext for exercising composed
// handlers without an engine.
type testContext struct {
	method string
	path   string
	params map[string]string
	query  map[string]string
	values map[string]any
	resp   *testResponse
}

func newTestContext(method, path string, params map[string]string) *testContext {
	return &testContext{
		method: method,
		path:   path,
		params: params,
		values: make(map[string]any),
		resp:   &testResponse{headers: http.Header{}},
	}
}

func (c *testContext) Method() string               { return c.method }
func (c *testContext) Path() string                 { return c.path }
func (c *testContext) RealIP() string               { return "127.0.0.1" }
func (c *testContext) Param(key string) string      { return c.params[key] }
func (c *testContext) QueryParam(key string) string { return c.query[key] }
func (c *testContext) Request() RequestInterface    { return testRequest{} }
func (c *testContext) Response() ResponseInterface  { return c.resp }
func (c *testContext) Bind(any) error               { return nil }
func (c *testContext) Get(key string) any           { return c.values[key] }
func (c *testContext) Set(key string, val any)      { c.values[key] = val }
func (c *testContext) Context() context.Context     { return context.Background() }

type testRequest struct{}

func (testRequest) Header(string) string     { return "" }
func (testRequest) SetHeader(string, string) {}
func (testRequest) Body() []byte             { return nil }
func (testRequest) ContentType() string      { return "" }

type testResponse struct {
	status  int
	headers http.Header
	body    any
	written bool
}

func (r *testResponse) Status() int                 { return r.status }
func (r *testResponse) SetStatus(code int)          { r.status = code }
func (r *testResponse) Header(key string) string    { return r.headers.Get(key) }
func (r *testResponse) SetHeader(key, value string) { r.headers.Set(key, value) }
func (r *testResponse) Written() bool               { return r.written }

func (r *testResponse) JSON(code int, i any) error {
	r.status, r.body, r.written = code, i, true
	return nil
}

func (r *testResponse) String(code int, s string) error {
	r.status, r.body, r.written = code, s, true
	return nil
}

func (r *testResponse) Blob(code int, _ string, b []byte) error {
	r.status, r.body, r.written = code, b, true
	return nil
}

func (r *testResponse) NoContent(code int) error {
	r.status, r.written = code, true
	return nil
}
