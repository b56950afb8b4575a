// Package adapters mounts a trellis routing tree on a concrete HTTP engine.
package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/toyz/trellis/pkg/trellis"
)

// Server is an engine a routing tree can be mounted on and served from
type Server interface {
	// Mount registers every route, middleware and static mount of root
	Mount(root *trellis.Node)

	// Use adds engine-wide middleware. Call it before Mount.
	Use(middleware trellis.MiddlewareFunc)

	// UseHTTP adds engine-wide net/http middleware such as cors.Handler.
	// Call it before Mount.
	UseHTTP(middlewares ...func(http.Handler) http.Handler)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Handler exposes the engine as an http.Handler
	Handler() http.Handler

	// Name returns the adapter name
	Name() string
}

// Engines lists the engine names New accepts
var Engines = []string{"gin", "echo", "fiber", "chi"}

// New creates the adapter for a named engine with a fresh engine instance
func New(engine string) (Server, error) {
	switch strings.ToLower(engine) {
	case "gin":
		return NewDefaultGinAdapter(), nil
	case "echo":
		return NewDefaultEchoAdapter(), nil
	case "fiber":
		return NewDefaultFiberAdapter(), nil
	case "chi":
		return NewDefaultChiAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (expected one of %s)", engine, strings.Join(Engines, ", "))
	}
}

// scope is one engine group a Node is mounted on
type scope interface {
	group(prefix string) scope
	handle(method trellis.Method, path trellis.Path, handler trellis.HandlerFunc, middlewares []trellis.MiddlewareFunc)
	static(path, dir, fullPath string)
}

// allMethods are the methods an ALL registration expands to
var allMethods = []trellis.Method{
	trellis.GET, trellis.HEAD, trellis.POST, trellis.PUT, trellis.PATCH,
	trellis.DELETE, trellis.OPTIONS, trellis.Method(http.MethodConnect), trellis.Method(http.MethodTrace),
}

// registration is one planned engine call
type registration struct {
	scope       scope
	kind        trellis.ItemKind
	method      trellis.Method
	path        string
	fullPath    string
	dir         string
	handler     trellis.HandlerFunc
	middlewares []trellis.MiddlewareFunc
}

// mountNode registers root on s. Handlers shadowed by a later registration
// of the same method and full path are dropped, with ALL expanded to every
// method, so each engine sees last-wins behaviour.
func mountNode(s scope, root *trellis.Node) {
	var plan []registration
	planNode(s, root, "", nil, nil, &plan)

	type key struct {
		method trellis.Method
		path   string
	}
	seen := make(map[key]bool)
	keep := make([]bool, len(plan))
	for i := len(plan) - 1; i >= 0; i-- {
		r := plan[i]
		if r.kind != trellis.HandleItem {
			keep[i] = true
			continue
		}
		k := key{r.method, r.fullPath}
		if !seen[k] {
			seen[k] = true
			keep[i] = true
		}
	}

	for i, r := range plan {
		if !keep[i] {
			continue
		}
		switch r.kind {
		case trellis.HandleItem:
			r.scope.handle(r.method, trellis.Path(r.path), r.handler, r.middlewares)
		case trellis.StaticItem:
			r.scope.static(r.path, r.dir, r.fullPath)
		}
	}
}

// planNode walks n in registration order. Scope middleware is passed to
// every route registered after it; endwares wrap each handler, innermost
// scope first.
func planNode(s scope, n *trellis.Node, prefix string, middlewares, endwares []trellis.MiddlewareFunc, plan *[]registration) {
	endwares = n.EndwaresWithin(endwares)
	middlewares = append([]trellis.MiddlewareFunc(nil), middlewares...)

	for _, item := range n.EffectiveItems() {
		switch item.Kind {
		case trellis.UseItem:
			middlewares = append(middlewares, item.Middlewares...)
		case trellis.HandleItem:
			chain := make([]trellis.MiddlewareFunc, 0, len(middlewares)+len(item.Middlewares))
			chain = append(chain, middlewares...)
			chain = append(chain, item.Middlewares...)
			handler := trellis.WithEndwares(item.Handler, endwares...)

			methods := []trellis.Method{item.Method}
			if item.Method == trellis.ALL {
				methods = allMethods
			}
			for _, m := range methods {
				*plan = append(*plan, registration{
					scope:       s,
					kind:        trellis.HandleItem,
					method:      m,
					path:        item.Path,
					fullPath:    trellis.JoinPath(prefix, item.Path),
					handler:     handler,
					middlewares: chain,
				})
			}
		case trellis.MountItem:
			planNode(s.group(item.Path), item.Child, trellis.JoinPath(prefix, item.Path), middlewares, endwares, plan)
		case trellis.StaticItem:
			*plan = append(*plan, registration{
				scope:    s,
				kind:     trellis.StaticItem,
				path:     item.Path,
				fullPath: trellis.JoinPath(prefix, item.Path),
				dir:      item.Dir,
			})
		}
	}
}

// writeError renders err as {"error": ...} unless a response is already out
func writeError(rc trellis.RequestContext, err error) {
	if rc.Response().Written() {
		return
	}
	code, body := trellis.ErrorBody(err)
	_ = rc.Response().JSON(code, body)
}

// readBody reads the request body and puts it back for later readers
func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// httpServer runs an http.Handler with graceful shutdown, for engines that
// have none of their own
type httpServer struct {
	mu  sync.Mutex
	srv *http.Server
}

func (s *httpServer) start(addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
