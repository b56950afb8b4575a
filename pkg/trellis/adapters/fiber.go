package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/toyz/trellis/pkg/trellis"
)

// writtenKey marks a response as written in fiber locals
const writtenKey = "trellis.written"

// FiberAdapter mounts trellis trees on a Fiber app
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter wraps an existing Fiber app
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a Fiber app with a JSON error handler and
// panic recovery installed
func NewDefaultFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code, body := trellis.ErrorBody(fiberError(err))
			return c.Status(code).JSON(body)
		},
	})
	app.Use(recover.New())

	return &FiberAdapter{app: app}
}

// Mount registers root on the app, one Group per node
func (fa *FiberAdapter) Mount(root *trellis.Node) {
	mountNode(&fiberScope{router: fa.app}, root)
}

// Use adds middleware to the Fiber app
func (fa *FiberAdapter) Use(mw trellis.MiddlewareFunc) {
	fa.app.Use(convertMiddlewareToFiber(mw))
}

// UseHTTP adds net/http middleware through fiber's adaptor
func (fa *FiberAdapter) UseHTTP(middlewares ...func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		fa.app.Use(adaptor.HTTPMiddleware(mw))
	}
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Handler adapts the app to net/http
func (fa *FiberAdapter) Handler() http.Handler {
	return adaptor.FiberApp(fa.app)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}

type fiberScope struct {
	router fiber.Router
}

func (s *fiberScope) group(prefix string) scope {
	return &fiberScope{router: s.router.Group(prefix)}
}

func (s *fiberScope) handle(method trellis.Method, path trellis.Path, handler trellis.HandlerFunc, middlewares []trellis.MiddlewareFunc) {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	for _, mw := range middlewares {
		handlers = append(handlers, convertMiddlewareToFiber(mw))
	}
	handlers = append(handlers, convertHandlerToFiber(handler))

	s.router.Add(string(method), path.ColonPath("*"), handlers...)
}

func (s *fiberScope) static(path, dir, _ string) {
	s.router.Static(path, dir)
}

// fiberError maps fiber's own errors onto trellis.HTTPError
func fiberError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return trellis.NewHTTPError(fe.Code, fe.Message)
	}
	return err
}

// convertHandlerToFiber converts a trellis handler to a Fiber handler
func convertHandlerToFiber(handler trellis.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := &FiberRequestContext{ctx: c}
		if err := handler(rc); err != nil {
			writeError(rc, err)
		}
		return nil
	}
}

// convertMiddlewareToFiber converts a trellis middleware to a Fiber handler
func convertMiddlewareToFiber(mw trellis.MiddlewareFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := &FiberRequestContext{ctx: c}

		err := mw(func(trellis.RequestContext) error {
			return c.Next()
		})(rc)

		if err != nil {
			writeError(rc, fiberError(err))
		}
		return nil
	}
}

// FiberRequestContext wraps fiber.Ctx to implement trellis.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

func (frc *FiberRequestContext) RealIP() string {
	return frc.ctx.IP()
}

func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

func (frc *FiberRequestContext) QueryParam(key string) string {
	return frc.ctx.Query(key)
}

func (frc *FiberRequestContext) Request() trellis.RequestInterface {
	return &FiberRequest{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Response() trellis.ResponseInterface {
	return &FiberResponse{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Bind(obj any) error {
	return frc.ctx.BodyParser(obj)
}

func (frc *FiberRequestContext) Get(key string) any {
	return frc.ctx.Locals(key)
}

func (frc *FiberRequestContext) Set(key string, val any) {
	frc.ctx.Locals(key, val)
}

func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

// FiberRequest wraps fiber.Ctx to implement trellis.RequestInterface
type FiberRequest struct {
	ctx *fiber.Ctx
}

func (fr *FiberRequest) Header(key string) string {
	return fr.ctx.Get(key)
}

func (fr *FiberRequest) SetHeader(key, value string) {
	fr.ctx.Request().Header.Set(key, value)
}

func (fr *FiberRequest) Body() []byte {
	return fr.ctx.Body()
}

func (fr *FiberRequest) ContentType() string {
	return string(fr.ctx.Request().Header.ContentType())
}

// FiberResponse wraps fiber.Ctx to implement trellis.ResponseInterface
type FiberResponse struct {
	ctx *fiber.Ctx
}

func (fr *FiberResponse) Status() int {
	return fr.ctx.Response().StatusCode()
}

func (fr *FiberResponse) SetStatus(code int) {
	fr.ctx.Status(code)
}

func (fr *FiberResponse) Header(key string) string {
	return string(fr.ctx.Response().Header.Peek(key))
}

func (fr *FiberResponse) SetHeader(name, value string) {
	fr.ctx.Set(name, value)
}

func (fr *FiberResponse) JSON(code int, data any) error {
	fr.markWritten()
	return fr.ctx.Status(code).JSON(data)
}

func (fr *FiberResponse) String(code int, s string) error {
	fr.markWritten()
	return fr.ctx.Status(code).SendString(s)
}

func (fr *FiberResponse) Blob(code int, contentType string, data []byte) error {
	fr.markWritten()
	fr.ctx.Set(fiber.HeaderContentType, contentType)
	return fr.ctx.Status(code).Send(data)
}

func (fr *FiberResponse) NoContent(code int) error {
	fr.markWritten()
	return fr.ctx.SendStatus(code)
}

// Written reports whether a body was sent through this interface. Fiber
// buffers the whole response, so there is no committed state to consult.
func (fr *FiberResponse) Written() bool {
	written, _ := fr.ctx.Locals(writtenKey).(bool)
	return written
}

func (fr *FiberResponse) markWritten() {
	fr.ctx.Locals(writtenKey, true)
}
