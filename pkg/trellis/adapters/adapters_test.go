package adapters

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/trellis/pkg/trellis"
)

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

type apiRoute struct{}
type usersRoute struct{}
type publicDir struct{}

// trail records the order middleware, handlers and endwares ran in
type trail struct {
	mu    sync.Mutex
	steps []string
}

func (tr *trail) add(step string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = append(tr.steps, step)
}

func (tr *trail) take() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	steps := tr.steps
	tr.steps = nil
	return steps
}

func record(tr *trail, name string) trellis.MiddlewareFunc {
	return func(next trellis.HandlerFunc) trellis.HandlerFunc {
		return func(c trellis.RequestContext) error {
			tr.add(name)
			return next(c)
		}
	}
}

func buildTree(t *testing.T, tr *trail) *trellis.Node {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello"), 0o644))

	store := trellis.NewStore().WithMiddlewareRegistry(trellis.NewMiddlewareRegistry())

	store.Route(apiRoute{}, "/api",
		trellis.Use(record(tr, "api-mw")),
		trellis.End(record(tr, "api-end")),
		trellis.Nest(usersRoute{}),
	)
	store.Endpoint(apiRoute{}, "GetStatus", trellis.GET, trellis.Handler(func(c trellis.RequestContext) error {
		tr.add("status")
		return c.Response().JSON(http.StatusOK, map[string]string{"status": "ok"})
	}))

	store.Route(usersRoute{}, "/users",
		trellis.Use(record(tr, "users-mw")),
		trellis.End(record(tr, "users-end")),
	)
	store.Endpoint(usersRoute{}, "Get", trellis.GET, trellis.Handler(func(c trellis.RequestContext) error {
		tr.add("list")
		return c.Response().JSON(http.StatusOK, []string{"ada", "linus"})
	}))
	store.Endpoint(usersRoute{}, "Signup", trellis.POST,
		trellis.At("/signup"),
		trellis.Use(record(tr, "signup-mw")),
		trellis.Handler(func(c trellis.RequestContext) error {
			var body struct {
				Name string `json:"name"`
			}
			if err := c.Bind(&body); err != nil {
				return trellis.NewHTTPError(http.StatusBadRequest, "invalid body", err)
			}
			tr.add("signup")
			return c.Response().JSON(http.StatusCreated, map[string]string{"name": body.Name})
		}),
	)
	store.Endpoint(usersRoute{}, "Secret", trellis.GET,
		trellis.At("/secret"),
		trellis.Use(func(next trellis.HandlerFunc) trellis.HandlerFunc {
			return func(c trellis.RequestContext) error {
				if c.Request().Header("Authorization") == "" {
					return trellis.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
				return next(c)
			}
		}),
		trellis.Handler(func(c trellis.RequestContext) error {
			tr.add("secret")
			return c.Response().String(http.StatusOK, "42")
		}),
	)
	store.Endpoint(usersRoute{}, "Fail", trellis.GET,
		trellis.At("/fail"),
		trellis.Handler(func(c trellis.RequestContext) error {
			tr.add("fail")
			return trellis.NewHTTPError(http.StatusTeapot, "teapot")
		}),
	)
	store.Endpoint(usersRoute{}, "DeleteUser", trellis.DELETE,
		trellis.At("/{id:int}"),
		trellis.Handler(func(c trellis.RequestContext) error {
			tr.add("delete:" + c.Param("id"))
			return c.Response().NoContent(http.StatusNoContent)
		}),
	)
	store.Endpoint(usersRoute{}, "Any", trellis.ALL,
		trellis.At("/any"),
		trellis.Handler(func(c trellis.RequestContext) error {
			return c.Response().String(http.StatusOK, c.Method())
		}),
	)

	store.Static(publicDir{}, "/", dir)

	root := trellis.NewNode()
	_, err := trellis.NewRegistrar(store).Load(root,
		trellis.Module{Name: "api", Export: apiRoute{}},
		trellis.Module{Name: "public", Export: publicDir{}},
	)
	require.NoError(t, err)
	return root
}

func do(t *testing.T, srv Server, method, target, body string, headers ...string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	if fa, ok := srv.(*FiberAdapter); ok {
		resp, err := fa.GetApp().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestAdapters_MountTree(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			tr := &trail{}
			srv, err := New(engine)
			require.NoError(t, err)
			srv.Mount(buildTree(t, tr))

			t.Run("endpoint on outer route", func(t *testing.T) {
				code, body := do(t, srv, http.MethodGet, "/api/status", "")
				assert.Equal(t, http.StatusOK, code)
				assert.JSONEq(t, `{"status":"ok"}`, body)
				assert.Equal(t, []string{"api-mw", "status", "api-end"}, tr.take())
			})

			t.Run("nested route root endpoint", func(t *testing.T) {
				code, body := do(t, srv, http.MethodGet, "/api/users", "")
				assert.Equal(t, http.StatusOK, code)
				assert.JSONEq(t, `["ada","linus"]`, body)
				assert.Equal(t, []string{"api-mw", "users-mw", "list", "users-end", "api-end"}, tr.take())
			})

			t.Run("endpoint middleware runs after scope middleware", func(t *testing.T) {
				code, body := do(t, srv, http.MethodPost, "/api/users/signup", `{"name":"grace"}`)
				assert.Equal(t, http.StatusCreated, code)
				assert.JSONEq(t, `{"name":"grace"}`, body)
				assert.Equal(t, []string{"api-mw", "users-mw", "signup-mw", "signup", "users-end", "api-end"}, tr.take())
			})

			t.Run("middleware can end the chain", func(t *testing.T) {
				code, body := do(t, srv, http.MethodGet, "/api/users/secret", "")
				assert.Equal(t, http.StatusUnauthorized, code)
				assert.JSONEq(t, `{"error":"unauthorized"}`, body)
				assert.Equal(t, []string{"api-mw", "users-mw"}, tr.take())

				code, body = do(t, srv, http.MethodGet, "/api/users/secret", "", "Authorization", "Bearer x")
				assert.Equal(t, http.StatusOK, code)
				assert.Equal(t, "42", body)
				assert.Equal(t, []string{"api-mw", "users-mw", "secret", "users-end", "api-end"}, tr.take())
			})

			t.Run("endwares skipped on error", func(t *testing.T) {
				code, body := do(t, srv, http.MethodGet, "/api/users/fail", "")
				assert.Equal(t, http.StatusTeapot, code)
				assert.JSONEq(t, `{"error":"teapot"}`, body)
				assert.Equal(t, []string{"api-mw", "users-mw", "fail"}, tr.take())
			})

			t.Run("typed parameter", func(t *testing.T) {
				code, body := do(t, srv, http.MethodDelete, "/api/users/abc", "")
				assert.Equal(t, http.StatusBadRequest, code)
				assert.JSONEq(t, `{"error":"invalid int parameter 'id'"}`, body)
				tr.take()

				code, _ = do(t, srv, http.MethodDelete, "/api/users/7", "")
				assert.Equal(t, http.StatusNoContent, code)
				assert.Equal(t, []string{"api-mw", "users-mw", "delete:7", "users-end", "api-end"}, tr.take())
			})

			t.Run("all methods", func(t *testing.T) {
				for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch} {
					code, body := do(t, srv, method, "/api/users/any", "")
					assert.Equal(t, http.StatusOK, code, method)
					assert.Equal(t, method, body)
				}
				tr.take()
			})

			t.Run("static mount", func(t *testing.T) {
				code, body := do(t, srv, http.MethodGet, "/hello.txt", "")
				assert.Equal(t, http.StatusOK, code)
				assert.Equal(t, "hello", body)
			})
		})
	}
}

func TestAdapters_DuplicateRouteLastWins(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			root := trellis.NewNode()
			root.Handle(trellis.GET, "/dup", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "first")
			})
			root.Handle(trellis.GET, "/dup", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "second")
			})

			srv, err := New(engine)
			require.NoError(t, err)
			require.NotPanics(t, func() { srv.Mount(root) })

			code, body := do(t, srv, http.MethodGet, "/dup", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "second", body)
		})
	}
}

func TestAdapters_AllThenMethodOnSamePath(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			root := trellis.NewNode()
			root.Handle(trellis.ALL, "/x", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "all")
			})
			root.Handle(trellis.GET, "/x", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "get")
			})

			srv, err := New(engine)
			require.NoError(t, err)
			require.NotPanics(t, func() { srv.Mount(root) })

			code, body := do(t, srv, http.MethodGet, "/x", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "get", body)

			code, body = do(t, srv, http.MethodPost, "/x", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "all", body)
		})
	}
}

func TestAdapters_MethodThenAllOnSamePath(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			root := trellis.NewNode()
			root.Handle(trellis.GET, "/x", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "get")
			})
			root.Handle(trellis.ALL, "/x", func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "all")
			})

			srv, err := New(engine)
			require.NoError(t, err)
			require.NotPanics(t, func() { srv.Mount(root) })

			for _, method := range []string{http.MethodGet, http.MethodDelete} {
				code, body := do(t, srv, method, "/x", "")
				assert.Equal(t, http.StatusOK, code, method)
				assert.Equal(t, "all", body, method)
			}
		})
	}
}

func TestAdapters_SiblingRoutesSharePrefix(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			sibling := func(name string) *trellis.Node {
				n := trellis.NewNode()
				n.Handle(trellis.GET, "/", func(c trellis.RequestContext) error {
					return c.Response().String(http.StatusOK, name)
				})
				n.Handle(trellis.GET, "/"+name, func(c trellis.RequestContext) error {
					return c.Response().String(http.StatusOK, name+"-only")
				})
				return n
			}

			root := trellis.NewNode()
			root.Mount("/users", sibling("first"))
			root.Mount("/users", sibling("second"))

			srv, err := New(engine)
			require.NoError(t, err)
			require.NotPanics(t, func() { srv.Mount(root) })

			code, body := do(t, srv, http.MethodGet, "/users", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "second", body)

			code, body = do(t, srv, http.MethodGet, "/users/first", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "first-only", body)

			code, body = do(t, srv, http.MethodGet, "/users/second", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "second-only", body)
		})
	}
}

func TestAdapters_UseAppliesToLaterRoutesOnly(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			tr := &trail{}
			ok := func(c trellis.RequestContext) error {
				return c.Response().String(http.StatusOK, "ok")
			}

			root := trellis.NewNode()
			child := trellis.NewNode()
			child.Handle(trellis.GET, "/before", ok)
			child.Use(record(tr, "late"))
			child.Handle(trellis.GET, "/after", ok)
			root.Mount("/scope", child)

			srv, err := New(engine)
			require.NoError(t, err)
			srv.Mount(root)

			code, _ := do(t, srv, http.MethodGet, "/scope/before", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Empty(t, tr.take())

			code, _ = do(t, srv, http.MethodGet, "/scope/after", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, []string{"late"}, tr.take())
		})
	}
}

func TestAdapters_ContextValues(t *testing.T) {
	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			root := trellis.NewNode()
			root.Use(func(next trellis.HandlerFunc) trellis.HandlerFunc {
				return func(c trellis.RequestContext) error {
					c.Set("user", "ada")
					return next(c)
				}
			})
			root.Handle(trellis.GET, "/files/{name}", func(c trellis.RequestContext) error {
				return c.Response().JSON(http.StatusOK, map[string]any{
					"user":  c.Get("user"),
					"name":  c.Param("name"),
					"q":     c.QueryParam("q"),
					"agent": c.Request().Header("X-Agent"),
				})
			})

			srv, err := New(engine)
			require.NoError(t, err)
			srv.Mount(root)

			code, body := do(t, srv, http.MethodGet, "/files/report?q=1", "", "X-Agent", "test")
			assert.Equal(t, http.StatusOK, code)
			assert.JSONEq(t, `{"user":"ada","name":"report","q":"1","agent":"test"}`, body)
		})
	}
}

func TestAdapters_UseHTTP(t *testing.T) {
	wrap := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Wrapped", "yes")
			if r.Header.Get("X-Block") != "" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("blocked"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	for _, engine := range Engines {
		t.Run(engine, func(t *testing.T) {
			var handled bool
			root := trellis.NewNode()
			root.Handle(trellis.GET, "/ping", func(c trellis.RequestContext) error {
				handled = true
				return c.Response().String(http.StatusOK, "pong")
			})

			srv, err := New(engine)
			require.NoError(t, err)
			srv.UseHTTP(wrap)
			srv.Mount(root)

			rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/ping", nil))
			assert.Equal(t, http.StatusOK, rec.code)
			assert.Equal(t, "pong", rec.body)
			assert.Equal(t, "yes", rec.header.Get("X-Wrapped"))
			assert.True(t, handled)

			handled = false
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Block", "1")
			rec = serve(t, srv, req)
			assert.Equal(t, http.StatusForbidden, rec.code)
			assert.Equal(t, "blocked", rec.body)
			assert.False(t, handled)
		})
	}
}

type served struct {
	code   int
	body   string
	header http.Header
}

func serve(t *testing.T, srv Server, req *http.Request) served {
	t.Helper()

	if fa, ok := srv.(*FiberAdapter); ok {
		resp, err := fa.GetApp().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return served{code: resp.StatusCode, body: string(b), header: resp.Header}
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return served{code: rec.Code, body: rec.Body.String(), header: rec.Header()}
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New("martini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestAdapters_Names(t *testing.T) {
	assert.Equal(t, "Gin", NewDefaultGinAdapter().Name())
	assert.Equal(t, "Echo", NewDefaultEchoAdapter().Name())
	assert.Equal(t, "Fiber", NewDefaultFiberAdapter().Name())
	assert.Equal(t, "Chi", NewDefaultChiAdapter().Name())
}
