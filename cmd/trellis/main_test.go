package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe to write from a serving goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(ctx context.Context, out, errOut io.Writer, args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

func setup(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("NO_COLOR", "1")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello"), 0o644))
	return dir
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRoutesCommand(t *testing.T) {
	dir := setup(t)

	var out, errOut syncBuffer
	err := execute(context.Background(), &out, &errOut, "routes", "--static-dir", dir)
	require.NoError(t, err, errOut.String())

	expected := strings.Join([]string{
		"GET    /api/users/",
		"POST   /api/users/signup",
		"POST   /api/users/login",
		"GET    /api/users/{name}/stats",
		"DELETE /api/users/",
		"DELETE /api/users/{id:uuid}",
		"GET    /api/",
		"STATIC / -> " + dir,
	}, "\n") + "\n"
	assert.Equal(t, expected, out.String())
}

func TestRoutesCommand_WithoutStatic(t *testing.T) {
	setup(t)

	var out, errOut syncBuffer
	require.NoError(t, execute(context.Background(), &out, &errOut, "routes"))
	assert.NotContains(t, out.String(), "STATIC")
	assert.Contains(t, out.String(), "GET    /api/\n")
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	setup(t)

	var out, errOut syncBuffer
	err := execute(context.Background(), &out, &errOut, "serve", "--engine", "martini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
	assert.Contains(t, errOut.String(), "Error: validate config")
}

func TestServeCommand(t *testing.T) {
	for _, engine := range []string{"gin", "echo", "fiber", "chi"} {
		t.Run(engine, func(t *testing.T) {
			dir := setup(t)
			addr := freeAddr(t)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var out, errOut syncBuffer
			done := make(chan error, 1)
			go func() {
				done <- execute(ctx, &out, &errOut, "serve",
					"--engine", engine,
					"--addr", addr,
					"--static-dir", dir,
					"--cors-origins", "https://app.example",
					"--shutdown-timeout", "2s",
				)
			}()

			base := "http://" + addr
			require.Eventually(t, func() bool {
				resp, err := http.Get(base + "/api")
				if err != nil {
					return false
				}
				_ = resp.Body.Close()
				return resp.StatusCode == http.StatusOK
			}, 5*time.Second, 20*time.Millisecond, errOut.String())

			req, err := http.NewRequest(http.MethodGet, base+"/api/users", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", "https://app.example")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `[]`, string(body))
			assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

			resp, err = http.Get(base + "/hello.txt")
			require.NoError(t, err)
			body, err = io.ReadAll(resp.Body)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, "hello", string(body))

			cancel()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("serve did not shut down")
			}

			assert.Contains(t, out.String(), "ROUTE /api/users\n")
			assert.Contains(t, out.String(), "[SUCCESS] registered 2 route(s), 7 endpoint(s), 1 static mount(s)\n")
			assert.Contains(t, out.String(), "[WARN] no auth.secret configured")
			assert.Contains(t, errOut.String(), "starting server")
		})
	}
}
