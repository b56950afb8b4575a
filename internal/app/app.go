// Package app is the demo application served by the trellis command: an
// /api root with a nested users route and an optional static site.
package app

import (
	"fmt"
	"log/slog"

	"github.com/toyz/trellis/internal/config"
	"github.com/toyz/trellis/pkg/trellis"
)

// App holds the declarations of the application and the services behind
// them.
type App struct {
	Users  *Directory
	Tokens *Tokens

	store   *trellis.Store
	catalog *trellis.Catalog
}

// Option configures an App.
type Option func(*App)

// WithDirectory replaces the user directory.
func WithDirectory(d *Directory) Option {
	return func(a *App) {
		a.Users = d
	}
}

// New declares the application's routes in a fresh store.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	a := &App{
		Users:  NewDirectory(),
		Tokens: NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL),
	}
	for _, opt := range opts {
		opt(a)
	}

	registry := trellis.NewMiddlewareRegistry()
	if err := RegisterMiddleware(registry, a.Tokens, logger); err != nil {
		return nil, fmt.Errorf("register middleware: %w", err)
	}
	a.store = trellis.NewStore().WithMiddlewareRegistry(registry)
	a.catalog = trellis.NewCatalog()

	if err := Declare(a.store, a.catalog, a.Users, a.Tokens, cfg.Static.Path, cfg.Static.Dir); err != nil {
		return nil, fmt.Errorf("declare routes: %w", err)
	}
	return a, nil
}

// Modules returns the top-level modules in load order.
func (a *App) Modules() []trellis.Module {
	return a.catalog.Modules()
}

// Build registers every module on a new routing tree. reporter may be nil.
func (a *App) Build(reporter trellis.Reporter) (*trellis.Node, *trellis.Report, error) {
	root := trellis.NewNode()
	report, err := trellis.NewRegistrar(a.store, trellis.WithReporter(reporter)).Load(root, a.catalog.Modules()...)
	if err != nil {
		return nil, report, err
	}
	return root, report, nil
}
