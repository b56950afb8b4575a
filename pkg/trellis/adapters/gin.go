package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toyz/trellis/pkg/trellis"
)

// GinAdapter mounts trellis trees on a Gin engine
type GinAdapter struct {
	engine *gin.Engine
	server httpServer
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a Gin adapter with panic recovery installed
func NewDefaultGinAdapter() *GinAdapter {
	engine := gin.New()
	engine.Use(gin.Recovery())
	return &GinAdapter{engine: engine}
}

// Mount registers root on the engine, one RouterGroup per node
func (ga *GinAdapter) Mount(root *trellis.Node) {
	mountNode(&ginScope{adapter: ga, rg: &ga.engine.RouterGroup}, root)
}

// Use registers a global middleware with the Gin engine
func (ga *GinAdapter) Use(middleware trellis.MiddlewareFunc) {
	ga.engine.Use(ga.convertMiddleware(middleware))
}

// UseHTTP adds net/http middleware. One that does not call its next handler
// aborts the gin chain.
func (ga *GinAdapter) UseHTTP(middlewares ...func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		ga.engine.Use(wrapHTTPMiddleware(mw))
	}
}

func wrapHTTPMiddleware(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var called bool
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}

// Start serves the engine until Stop is called
func (ga *GinAdapter) Start(addr string) error {
	return ga.server.start(addr, ga.engine)
}

// Stop shuts the server down gracefully
func (ga *GinAdapter) Stop(ctx context.Context) error {
	return ga.server.stop(ctx)
}

// Handler returns the engine
func (ga *GinAdapter) Handler() http.Handler {
	return ga.engine
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

type ginScope struct {
	adapter *GinAdapter
	rg      *gin.RouterGroup
}

func (s *ginScope) group(prefix string) scope {
	return &ginScope{adapter: s.adapter, rg: s.rg.Group(prefix)}
}

func (s *ginScope) handle(method trellis.Method, path trellis.Path, handler trellis.HandlerFunc, middlewares []trellis.MiddlewareFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	for _, mw := range middlewares {
		handlers = append(handlers, s.adapter.convertMiddleware(mw))
	}
	handlers = append(handlers, s.adapter.convertHandler(handler))

	s.rg.Handle(string(method), convertPathToGin(path), handlers...)
}

func (s *ginScope) static(path, dir, fullPath string) {
	// A catch-all at the root would conflict with every other route, so
	// the root mount serves whatever nothing else matched.
	if fullPath == "/" {
		fs := http.FileServer(http.Dir(dir))
		s.adapter.engine.NoRoute(func(c *gin.Context) {
			fs.ServeHTTP(c.Writer, c.Request)
		})
		return
	}
	s.rg.Static(path, dir)
}

// convertPathToGin converts a trellis path to Gin's syntax. A bare "/"
// becomes the group path itself.
func convertPathToGin(path trellis.Path) string {
	if path == "/" {
		return ""
	}
	return path.ColonPath("*path")
}

// convertHandler converts trellis.HandlerFunc to gin.HandlerFunc
func (ga *GinAdapter) convertHandler(handler trellis.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &GinRequestContext{ctx: c}
		if err := handler(rc); err != nil {
			writeError(rc, err)
		}
	}
}

// convertMiddleware converts trellis.MiddlewareFunc to gin.HandlerFunc. A
// middleware that returns without calling next aborts the chain.
func (ga *GinAdapter) convertMiddleware(middleware trellis.MiddlewareFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &GinRequestContext{ctx: c}

		called := false
		next := func(trellis.RequestContext) error {
			called = true
			c.Next()
			return nil
		}

		if err := middleware(next)(rc); err != nil {
			writeError(rc, err)
			c.Abort()
			return
		}
		if !called {
			c.Abort()
		}
	}
}

// GinRequestContext implements trellis.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

// Method returns the HTTP method
func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

// Path returns the request path
func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

// RealIP returns the real IP address
func (grc *GinRequestContext) RealIP() string {
	return grc.ctx.ClientIP()
}

// Param returns a path parameter
func (grc *GinRequestContext) Param(name string) string {
	if name == "*" {
		// Gin names the catch-all *path
		return grc.ctx.Param("path")
	}
	return grc.ctx.Param(name)
}

// QueryParam returns a query parameter
func (grc *GinRequestContext) QueryParam(name string) string {
	return grc.ctx.Query(name)
}

// Request returns the request interface
func (grc *GinRequestContext) Request() trellis.RequestInterface {
	return &GinRequestInterface{ctx: grc.ctx}
}

// Response returns the response interface
func (grc *GinRequestContext) Response() trellis.ResponseInterface {
	return &GinResponseInterface{ctx: grc.ctx}
}

// Bind binds the JSON request body to a struct
func (grc *GinRequestContext) Bind(i any) error {
	return grc.ctx.ShouldBindJSON(i)
}

// Get returns a value from context
func (grc *GinRequestContext) Get(key string) any {
	value, _ := grc.ctx.Get(key)
	return value
}

// Set sets a value in context
func (grc *GinRequestContext) Set(key string, val any) {
	grc.ctx.Set(key, val)
}

// Context returns the request context
func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

// GinRequestInterface implements trellis.RequestInterface for Gin
type GinRequestInterface struct {
	ctx *gin.Context
}

// Header returns a request header
func (gri *GinRequestInterface) Header(key string) string {
	return gri.ctx.GetHeader(key)
}

// SetHeader sets a request header
func (gri *GinRequestInterface) SetHeader(key, value string) {
	gri.ctx.Request.Header.Set(key, value)
}

// Body returns the request body
func (gri *GinRequestInterface) Body() []byte {
	return readBody(gri.ctx.Request)
}

// ContentType returns the content type
func (gri *GinRequestInterface) ContentType() string {
	return gri.ctx.ContentType()
}

// GinResponseInterface implements trellis.ResponseInterface for Gin
type GinResponseInterface struct {
	ctx *gin.Context
}

// Status returns the response status code
func (gri *GinResponseInterface) Status() int {
	return gri.ctx.Writer.Status()
}

// SetStatus sets the response status code
func (gri *GinResponseInterface) SetStatus(code int) {
	gri.ctx.Status(code)
}

// Header returns a response header
func (gri *GinResponseInterface) Header(key string) string {
	return gri.ctx.Writer.Header().Get(key)
}

// SetHeader sets a response header
func (gri *GinResponseInterface) SetHeader(key, value string) {
	gri.ctx.Header(key, value)
}

// JSON writes a JSON response
func (gri *GinResponseInterface) JSON(code int, i any) error {
	gri.ctx.JSON(code, i)
	return nil
}

// String writes a string response
func (gri *GinResponseInterface) String(code int, s string) error {
	gri.ctx.String(code, s)
	return nil
}

// Blob writes a blob response
func (gri *GinResponseInterface) Blob(code int, contentType string, b []byte) error {
	gri.ctx.Data(code, contentType, b)
	return nil
}

// NoContent writes a status with no body
func (gri *GinResponseInterface) NoContent(code int) error {
	gri.ctx.Status(code)
	gri.ctx.Writer.WriteHeaderNow()
	return nil
}

// Written returns whether the response has been written
func (gri *GinResponseInterface) Written() bool {
	return gri.ctx.Writer.Written()
}
