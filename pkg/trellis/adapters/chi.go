package adapters

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/toyz/trellis/pkg/trellis"
)

// ChiAdapter mounts trellis trees on a chi router
type ChiAdapter struct {
	mux    chi.Router
	server httpServer
}

// NewChiAdapter wraps an existing chi router
func NewChiAdapter(r chi.Router) *ChiAdapter {
	return &ChiAdapter{mux: r}
}

// NewDefaultChiAdapter creates a chi router with panic recovery installed
func NewDefaultChiAdapter() *ChiAdapter {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return &ChiAdapter{mux: r}
}

// Mount registers root on the router, one sub-router per node. Middleware is
// attached with With, so Use may still be called on the router beforehand.
func (ca *ChiAdapter) Mount(root *trellis.Node) {
	mountNode(newChiScope(ca.mux), root)
}

// Use adds router-wide middleware. chi requires this before any route.
func (ca *ChiAdapter) Use(mw trellis.MiddlewareFunc) {
	ca.mux.Use(convertMiddlewareToChi(mw))
}

// UseHTTP adds plain net/http middleware such as cors.Handler.
func (ca *ChiAdapter) UseHTTP(middlewares ...func(http.Handler) http.Handler) {
	ca.mux.Use(middlewares...)
}

// Start serves the router until Stop is called
func (ca *ChiAdapter) Start(addr string) error {
	return ca.server.start(addr, ca.mux)
}

// Stop shuts the server down gracefully
func (ca *ChiAdapter) Stop(ctx context.Context) error {
	return ca.server.stop(ctx)
}

// Handler returns the router
func (ca *ChiAdapter) Handler() http.Handler {
	return ca.mux
}

// Name returns the adapter name
func (ca *ChiAdapter) Name() string {
	return "Chi"
}

// GetRouter returns the underlying chi router
func (ca *ChiAdapter) GetRouter() chi.Router {
	return ca.mux
}

type chiScope struct {
	router chi.Router
	subs   map[string]*chiScope
}

func newChiScope(r chi.Router) *chiScope {
	return &chiScope{router: r, subs: make(map[string]*chiScope)}
}

func (s *chiScope) group(prefix string) scope {
	if prefix == "" || prefix == "/" {
		return newChiScope(s.router.Group(nil))
	}
	// chi refuses to mount twice on one pattern, so routes sharing a
	// prefix share a sub-router
	if sub, ok := s.subs[prefix]; ok {
		return sub
	}
	sub := newChiScope(chi.NewRouter())
	s.router.Mount(prefix, sub.router)
	s.subs[prefix] = sub
	return sub
}

func (s *chiScope) handle(method trellis.Method, path trellis.Path, handler trellis.HandlerFunc, middlewares []trellis.MiddlewareFunc) {
	chiMiddlewares := make([]func(http.Handler) http.Handler, len(middlewares))
	for i, mw := range middlewares {
		chiMiddlewares[i] = convertMiddlewareToChi(mw)
	}

	s.router.With(chiMiddlewares...).Method(string(method), path.BracePath(), convertHandlerToChi(handler))
}

func (s *chiScope) static(path, dir, fullPath string) {
	fs := http.StripPrefix(strings.TrimSuffix(fullPath, "/"), http.FileServer(http.Dir(dir)))
	s.router.Handle(strings.TrimSuffix(path, "/")+"/*", fs)
}

type chiStateKey struct{}

// chiState is shared by every layer of one request
type chiState struct {
	values map[string]any
	w      middleware.WrapResponseWriter
}

// chiContextFor returns the request context for w and r, attaching fresh
// per-request state on the first layer
func chiContextFor(w http.ResponseWriter, r *http.Request) *ChiRequestContext {
	st, ok := r.Context().Value(chiStateKey{}).(*chiState)
	if !ok {
		st = &chiState{
			values: make(map[string]any),
			w:      middleware.NewWrapResponseWriter(w, r.ProtoMajor),
		}
		r = r.WithContext(context.WithValue(r.Context(), chiStateKey{}, st))
	}
	return &ChiRequestContext{r: r, state: st}
}

func convertHandlerToChi(handler trellis.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := chiContextFor(w, r)
		if err := handler(rc); err != nil {
			writeError(rc, err)
		}
	})
}

func convertMiddlewareToChi(mw trellis.MiddlewareFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := chiContextFor(w, r)
			err := mw(func(trellis.RequestContext) error {
				next.ServeHTTP(rc.state.w, rc.r)
				return nil
			})(rc)
			if err != nil {
				writeError(rc, err)
			}
		})
	}
}

// ChiRequestContext implements trellis.RequestContext over net/http
type ChiRequestContext struct {
	r     *http.Request
	state *chiState
}

// Method returns the HTTP method
func (crc *ChiRequestContext) Method() string {
	return crc.r.Method
}

// Path returns the request path
func (crc *ChiRequestContext) Path() string {
	return crc.r.URL.Path
}

// RealIP returns the remote address without its port
func (crc *ChiRequestContext) RealIP() string {
	host, _, err := net.SplitHostPort(crc.r.RemoteAddr)
	if err != nil {
		return crc.r.RemoteAddr
	}
	return host
}

// Param returns a path parameter
func (crc *ChiRequestContext) Param(name string) string {
	return chi.URLParam(crc.r, name)
}

// QueryParam returns a query parameter
func (crc *ChiRequestContext) QueryParam(name string) string {
	return crc.r.URL.Query().Get(name)
}

// Request returns the request interface
func (crc *ChiRequestContext) Request() trellis.RequestInterface {
	return &ChiRequestInterface{r: crc.r}
}

// Response returns the response interface
func (crc *ChiRequestContext) Response() trellis.ResponseInterface {
	return &ChiResponseInterface{w: crc.state.w}
}

// Bind decodes the JSON request body into i
func (crc *ChiRequestContext) Bind(i any) error {
	if err := json.NewDecoder(crc.r.Body).Decode(i); err != nil {
		return trellis.NewHTTPError(http.StatusBadRequest, "invalid JSON body", err)
	}
	return nil
}

// Get returns a per-request value
func (crc *ChiRequestContext) Get(key string) any {
	return crc.state.values[key]
}

// Set stores a per-request value
func (crc *ChiRequestContext) Set(key string, val any) {
	crc.state.values[key] = val
}

// Context returns the request context
func (crc *ChiRequestContext) Context() context.Context {
	return crc.r.Context()
}

// ChiRequestInterface implements trellis.RequestInterface over net/http
type ChiRequestInterface struct {
	r *http.Request
}

func (cri *ChiRequestInterface) Header(key string) string {
	return cri.r.Header.Get(key)
}

func (cri *ChiRequestInterface) SetHeader(key, value string) {
	cri.r.Header.Set(key, value)
}

func (cri *ChiRequestInterface) Body() []byte {
	return readBody(cri.r)
}

func (cri *ChiRequestInterface) ContentType() string {
	return cri.r.Header.Get("Content-Type")
}

// ChiResponseInterface implements trellis.ResponseInterface over net/http
type ChiResponseInterface struct {
	w middleware.WrapResponseWriter
}

func (cri *ChiResponseInterface) Status() int {
	if status := cri.w.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

// SetStatus writes the status line immediately; net/http cannot defer it.
func (cri *ChiResponseInterface) SetStatus(code int) {
	cri.w.WriteHeader(code)
}

func (cri *ChiResponseInterface) Header(key string) string {
	return cri.w.Header().Get(key)
}

func (cri *ChiResponseInterface) SetHeader(key, value string) {
	cri.w.Header().Set(key, value)
}

func (cri *ChiResponseInterface) JSON(code int, i any) error {
	cri.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	cri.w.WriteHeader(code)
	return json.NewEncoder(cri.w).Encode(i)
}

func (cri *ChiResponseInterface) String(code int, s string) error {
	cri.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	cri.w.WriteHeader(code)
	_, err := cri.w.Write([]byte(s))
	return err
}

func (cri *ChiResponseInterface) Blob(code int, contentType string, b []byte) error {
	cri.w.Header().Set("Content-Type", contentType)
	cri.w.WriteHeader(code)
	_, err := cri.w.Write(b)
	return err
}

func (cri *ChiResponseInterface) NoContent(code int) error {
	cri.w.WriteHeader(code)
	return nil
}

func (cri *ChiResponseInterface) Written() bool {
	return cri.w.Status() != 0
}
