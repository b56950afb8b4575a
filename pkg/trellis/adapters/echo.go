package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/toyz/trellis/pkg/trellis"
)

// EchoAdapter mounts trellis trees on an Echo v4 instance
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates an Echo adapter with panic recovery installed
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return &EchoAdapter{engine: e}
}

// Mount registers root on the engine, one Group per node
func (ea *EchoAdapter) Mount(root *trellis.Node) {
	mountNode(&echoScope{adapter: ea, rg: ea.engine.Group("")}, root)
}

// Use adds global middleware
func (ea *EchoAdapter) Use(mw trellis.MiddlewareFunc) {
	ea.engine.Use(ea.convertMiddleware(mw))
}

// UseHTTP adds net/http middleware
func (ea *EchoAdapter) UseHTTP(middlewares ...func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		ea.engine.Use(echo.WrapMiddleware(mw))
	}
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	if err := ea.engine.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Handler returns the Echo instance
func (ea *EchoAdapter) Handler() http.Handler {
	return ea.engine
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

type echoScope struct {
	adapter *EchoAdapter
	rg      *echo.Group
	nested  bool
}

func (s *echoScope) group(prefix string) scope {
	return &echoScope{adapter: s.adapter, rg: s.rg.Group(prefix), nested: true}
}

func (s *echoScope) handle(method trellis.Method, path trellis.Path, handler trellis.HandlerFunc, middlewares []trellis.MiddlewareFunc) {
	echoMiddlewares := make([]echo.MiddlewareFunc, len(middlewares))
	for i, mw := range middlewares {
		echoMiddlewares[i] = s.adapter.convertMiddleware(mw)
	}

	echoPath := path.ColonPath("*")
	if s.nested && echoPath == "/" {
		echoPath = ""
	}

	s.rg.Add(string(method), echoPath, s.adapter.convertHandler(handler), echoMiddlewares...)
}

func (s *echoScope) static(path, dir, _ string) {
	s.rg.Static(path, dir)
}

// convertHandler converts trellis.HandlerFunc to echo.HandlerFunc
func (ea *EchoAdapter) convertHandler(handler trellis.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := &EchoRequestContext{context: c}
		if err := handler(rc); err != nil {
			writeError(rc, err)
		}
		return nil
	}
}

// convertMiddleware converts trellis.MiddlewareFunc to echo.MiddlewareFunc
func (ea *EchoAdapter) convertMiddleware(mw trellis.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			trellisNext := func(trellis.RequestContext) error {
				return next(c)
			}

			rc := &EchoRequestContext{context: c}
			if err := mw(trellisNext)(rc); err != nil {
				writeError(rc, err)
			}
			return nil
		}
	}
}

// EchoRequestContext implements trellis.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
}

// Method returns the HTTP method
func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

// Path returns the request path
func (erc *EchoRequestContext) Path() string {
	return erc.context.Request().URL.Path
}

// RealIP returns the real IP address
func (erc *EchoRequestContext) RealIP() string {
	return erc.context.RealIP()
}

// Param returns path parameter by name
func (erc *EchoRequestContext) Param(key string) string {
	return erc.context.Param(key)
}

// QueryParam returns query parameter by name
func (erc *EchoRequestContext) QueryParam(key string) string {
	return erc.context.QueryParam(key)
}

// Request returns the request interface
func (erc *EchoRequestContext) Request() trellis.RequestInterface {
	return &EchoRequestInterface{context: erc.context}
}

// Response returns the response interface
func (erc *EchoRequestContext) Response() trellis.ResponseInterface {
	return &EchoResponseInterface{context: erc.context}
}

// Bind binds request data to a struct
func (erc *EchoRequestContext) Bind(i any) error {
	return erc.context.Bind(i)
}

// Get retrieves data from context
func (erc *EchoRequestContext) Get(key string) any {
	return erc.context.Get(key)
}

// Set saves data in context
func (erc *EchoRequestContext) Set(key string, val any) {
	erc.context.Set(key, val)
}

// Context returns the request context
func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

// EchoRequestInterface implements trellis.RequestInterface for Echo
type EchoRequestInterface struct {
	context echo.Context
}

// Header returns a request header
func (eri *EchoRequestInterface) Header(key string) string {
	return eri.context.Request().Header.Get(key)
}

// SetHeader sets a request header
func (eri *EchoRequestInterface) SetHeader(key, value string) {
	eri.context.Request().Header.Set(key, value)
}

// Body returns the request body
func (eri *EchoRequestInterface) Body() []byte {
	return readBody(eri.context.Request())
}

// ContentType returns the content type
func (eri *EchoRequestInterface) ContentType() string {
	return eri.context.Request().Header.Get(echo.HeaderContentType)
}

// EchoResponseInterface implements trellis.ResponseInterface for Echo
type EchoResponseInterface struct {
	context echo.Context
}

// Status returns the response status code
func (eri *EchoResponseInterface) Status() int {
	return eri.context.Response().Status
}

// SetStatus sets the response status code
func (eri *EchoResponseInterface) SetStatus(code int) {
	eri.context.Response().Status = code
}

// Header returns a response header
func (eri *EchoResponseInterface) Header(key string) string {
	return eri.context.Response().Header().Get(key)
}

// SetHeader sets a response header
func (eri *EchoResponseInterface) SetHeader(key, value string) {
	eri.context.Response().Header().Set(key, value)
}

// JSON writes a JSON response
func (eri *EchoResponseInterface) JSON(code int, i any) error {
	return eri.context.JSON(code, i)
}

// String writes a string response
func (eri *EchoResponseInterface) String(code int, s string) error {
	return eri.context.String(code, s)
}

// Blob writes a blob response
func (eri *EchoResponseInterface) Blob(code int, contentType string, b []byte) error {
	return eri.context.Blob(code, contentType, b)
}

// NoContent writes a status with no body
func (eri *EchoResponseInterface) NoContent(code int) error {
	return eri.context.NoContent(code)
}

// Written returns whether the response has been committed
func (eri *EchoResponseInterface) Written() bool {
	return eri.context.Response().Committed
}
