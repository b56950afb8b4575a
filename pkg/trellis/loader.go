package trellis

import (
	"fmt"
	"sync"
)

// Registrar walks declarations in a Store and builds routing trees from
// them.
type Registrar struct {
	store           *Store
	reporter        Reporter
	continueOnError bool
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithReporter sets the diagnostics sink.
func WithReporter(rep Reporter) RegistrarOption {
	return func(r *Registrar) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// WithContinueOnError makes Load warn about a failing module and carry on
// instead of aborting.
func WithContinueOnError() RegistrarOption {
	return func(r *Registrar) {
		r.continueOnError = true
	}
}

// NewRegistrar creates a registrar reading store, or DefaultStore when store
// is nil.
func NewRegistrar(store *Store, opts ...RegistrarOption) *Registrar {
	if store == nil {
		store = DefaultStore
	}
	r := &Registrar{store: store, reporter: NopReporter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the metadata store the registrar reads.
func (r *Registrar) Store() *Store {
	return r.store
}

// Module is one discovered unit of route declarations and its export.
type Module struct {
	Name   string
	Export any
}

// Result is what Dispatch did with one module. Skipped holds the reason when
// nothing was registered.
type Result struct {
	Route   *RouteReport
	Static  *StaticReport
	Skipped string
}

// Dispatch registers one module by the kind of its export.
func (r *Registrar) Dispatch(root Router, m Module) (Result, error) {
	if m.Export == nil {
		r.reporter.Warn(fmt.Sprintf("no export in %s", m.Name))
		return Result{Skipped: "no export"}, nil
	}

	desc, err := r.store.Describe(m.Export)
	if err != nil {
		return Result{}, err
	}

	switch d := desc.(type) {
	case *RouteDescriptor:
		rr, err := r.RegisterRoute(root, m.Export)
		return Result{Route: rr}, err
	case *StaticDescriptor:
		sr, err := r.RegisterStatic(root, m.Export)
		return Result{Static: sr}, err
	case Unrecognized:
		r.reporter.Warn(fmt.Sprintf("unrecognized export %s in %s", d.Name, m.Name))
		return Result{Skipped: "unrecognized"}, nil
	default:
		return Result{}, newError(KindMismatchCode, EntityOf(m.Export), "", "unknown descriptor %T", desc)
	}
}

// Load dispatches modules onto root in order. It stops at the first error
// unless the registrar was built WithContinueOnError.
func (r *Registrar) Load(root Router, modules ...Module) (*Report, error) {
	report := &Report{}
	for _, m := range modules {
		res, err := r.Dispatch(root, m)
		if err != nil {
			if !r.continueOnError {
				return report, fmt.Errorf("load %s: %w", m.Name, err)
			}
			r.reporter.Warn(fmt.Sprintf("skipping %s: %v", m.Name, err))
			report.Skipped = append(report.Skipped, SkippedModule{Name: m.Name, Reason: "error", Err: err})
			continue
		}
		switch {
		case res.Route != nil:
			report.Routes = append(report.Routes, res.Route)
		case res.Static != nil:
			report.Statics = append(report.Statics, res.Static)
		default:
			report.Skipped = append(report.Skipped, SkippedModule{Name: m.Name, Reason: res.Skipped})
		}
	}
	return report, nil
}

// Catalog collects modules registered at init time, standing in for a
// directory scan.
type Catalog struct {
	mu      sync.Mutex
	modules []Module
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Register appends a module.
func (c *Catalog) Register(name string, export any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules = append(c.modules, Module{Name: name, Export: export})
}

// Modules returns the registered modules in registration order.
func (c *Catalog) Modules() []Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Module(nil), c.modules...)
}

// DefaultCatalog is the process-wide module catalog.
var DefaultCatalog = NewCatalog()

// RegisterModule adds a module to DefaultCatalog.
func RegisterModule(name string, export any) {
	DefaultCatalog.Register(name, export)
}
