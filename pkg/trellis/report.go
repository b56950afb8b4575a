package trellis

import "sync"

// EndpointReport describes one registered endpoint.
type EndpointReport struct {
	Method Method
	Path   string
	Member string
}

// RouteReport describes one mounted route subtree.
type RouteReport struct {
	FullPath     string
	Prefix       string
	Entity       Entity
	Middlewares  int
	Endwares     int
	NestedRoutes int
	Endpoints    []EndpointReport
	Nested       []*RouteReport
}

// StaticReport describes one static mount.
type StaticReport struct {
	Path   string
	Dir    string
	Entity Entity
}

// SkippedModule records a module the loader did not register.
type SkippedModule struct {
	Name   string
	Reason string
	Err    error
}

// Report is everything one Load call registered, in registration order.
type Report struct {
	Routes  []*RouteReport
	Statics []*StaticReport
	Skipped []SkippedModule
}

// Reporter receives diagnostics as the registration pass emits them.
type Reporter interface {
	Route(r *RouteReport)
	Static(s *StaticReport)
	Warn(message string)
}

type nopReporter struct{}

func (nopReporter) Route(*RouteReport)   {}
func (nopReporter) Static(*StaticReport) {}
func (nopReporter) Warn(string)          {}

// NopReporter discards diagnostics.
var NopReporter Reporter = nopReporter{}

// Recorder is a Reporter that keeps every record it receives.
type Recorder struct {
	mu       sync.Mutex
	routes   []*RouteReport
	statics  []*StaticReport
	warnings []string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Route(rr *RouteReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, rr)
}

func (r *Recorder) Static(s *StaticReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statics = append(r.statics, s)
}

func (r *Recorder) Warn(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, message)
}

// Routes returns route records in emission order (nested before parent).
func (r *Recorder) Routes() []*RouteReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RouteReport(nil), r.routes...)
}

// Statics returns static mount records in emission order.
func (r *Recorder) Statics() []*StaticReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*StaticReport(nil), r.statics...)
}

// Warnings returns the warnings in emission order.
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Multi fans diagnostics out to several reporters.
func Multi(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

type multiReporter []Reporter

func (m multiReporter) Route(r *RouteReport) {
	for _, rep := range m {
		rep.Route(r)
	}
}

func (m multiReporter) Static(s *StaticReport) {
	for _, rep := range m {
		rep.Static(s)
	}
}

func (m multiReporter) Warn(message string) {
	for _, rep := range m {
		rep.Warn(message)
	}
}
