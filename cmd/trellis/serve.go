package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/toyz/trellis/internal/app"
	"github.com/toyz/trellis/internal/config"
	"github.com/toyz/trellis/internal/diagnostics"
	"github.com/toyz/trellis/internal/logging"
	"github.com/toyz/trellis/pkg/trellis/adapters"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Register the application's routes and serve them on the configured engine.`,
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address (env: TRELLIS_SERVER_ADDRESS)")
	flags.String("engine", "gin", "HTTP engine: gin, echo, fiber, chi (env: TRELLIS_SERVER_ENGINE)")
	flags.Duration("shutdown-timeout", 0, "graceful shutdown timeout (default: 10s, env: TRELLIS_SERVER_SHUTDOWN_TIMEOUT)")
	flags.StringSlice("cors-origins", nil, "allowed CORS origins, empty to disable (env: TRELLIS_CORS_ALLOWED_ORIGINS)")
	flags.Duration("token-ttl", 0, "lifetime of login tokens (default: 24h, env: TRELLIS_AUTH_TOKEN_TTL)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	console, err := newConsole(cmd, cfg)
	if err != nil {
		return err
	}

	srv, err := newServer(cfg, console, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address)
	}()
	slog.Info("starting server", "addr", cfg.Server.Address, "engine", srv.Name())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServer builds the application and mounts it on the configured engine.
func newServer(cfg *config.Config, console *diagnostics.Console, logger *slog.Logger) (adapters.Server, error) {
	configureEngines(cfg, logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Secret == "" {
		console.Warn("no auth.secret configured; login tokens will not survive a restart")
	}

	root, report, err := a.Build(console)
	if err != nil {
		console.Error(err)
		return nil, err
	}
	console.Summary(report)

	srv, err := adapters.New(cfg.Server.Engine)
	if err != nil {
		return nil, err
	}
	if cfg.CORS.Enabled() {
		srv.UseHTTP(corsHandler(cfg.CORS))
		console.Verbose("CORS enabled for %v", cfg.CORS.AllowedOrigins)
	}
	srv.Mount(root)
	return srv, nil
}

// corsHandler builds the cross-origin middleware applied on every engine.
func corsHandler(c config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   []string{app.RequestIDHeader},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	})
}

// configureEngines sends engine debug output through the process logger.
func configureEngines(cfg *config.Config, logger *slog.Logger) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logging.Writer(logger, slog.LevelDebug)
	gin.DefaultErrorWriter = logging.Writer(logger, slog.LevelError)
}
