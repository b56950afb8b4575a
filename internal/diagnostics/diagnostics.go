// Package diagnostics prints registration diagnostics to a terminal.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/toyz/trellis/pkg/trellis"
)

// Level represents the level of diagnostic output
type Level int

const (
	Silent Level = iota
	Error
	Warn
	Info
	Verbose
)

var levelNames = map[string]Level{
	"silent":  Silent,
	"error":   Error,
	"warn":    Warn,
	"info":    Info,
	"verbose": Verbose,
	"debug":   Verbose,
}

// ParseLevel converts a level name such as "info" to a Level
func ParseLevel(s string) (Level, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Silent, fmt.Errorf("unknown diagnostic level %q", s)
	}
	return level, nil
}

// String returns the lowercase level name
func (l Level) String() string {
	switch l {
	case Silent:
		return "silent"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Verbose:
		return "verbose"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Console renders route reports, warnings and summaries. It implements
// trellis.Reporter.
type Console struct {
	mu        sync.Mutex
	level     Level
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	now       func() time.Time
}

var _ trellis.Reporter = (*Console)(nil)

// Option configures a Console
type Option func(*Console)

// WithOutput redirects normal and error output
func WithOutput(output, errorOut io.Writer) Option {
	return func(c *Console) {
		c.output = output
		c.errorOut = errorOut
	}
}

// WithColors forces colors on or off
func WithColors(enabled bool) Option {
	return func(c *Console) {
		c.useColors = enabled
	}
}

// WithClock replaces the timestamp source used in verbose mode
func WithClock(now func() time.Time) Option {
	return func(c *Console) {
		c.now = now
	}
}

// New creates a console writing to stdout and stderr
func New(level Level, opts ...Option) *Console {
	c := &Console{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= Verbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Level returns the console's level
func (c *Console) Level() Level {
	return c.level
}

func (c *Console) paint(attr color.Attribute, s any) string {
	p := color.New(attr)
	if c.useColors {
		p.EnableColor()
	} else {
		p.DisableColor()
	}
	return p.Sprint(s)
}

// Route prints one mounted route
func (c *Console) Route(r *trellis.RouteReport) {
	if c.level < Info {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", c.paint(color.FgRed, "ROUTE"), c.paint(color.FgHiBlue, r.FullPath))
	fmt.Fprintf(&b, "  - %s %s\n", c.paint(color.FgYellow, r.Middlewares), c.paint(color.FgGreen, "MIDDLEWARES"))
	fmt.Fprintf(&b, "  - %s %s\n", c.paint(color.FgYellow, r.Endwares), c.paint(color.FgGreen, "ENDWARES"))
	fmt.Fprintf(&b, "  - %s %s\n", c.paint(color.FgYellow, r.NestedRoutes), c.paint(color.FgGreen, "ROUTES"))
	b.WriteString("  --- ENDPOINTS ---\n")
	for _, ep := range r.Endpoints {
		fmt.Fprintf(&b, "  - %s %s => %s\n",
			c.paint(color.FgRed, string(ep.Method)),
			c.paint(color.FgHiBlue, ep.Path),
			c.paint(color.FgMagenta, ep.Member))
	}
	b.WriteString("\n")

	c.write(c.output, b.String())
}

// Static prints one static mount
func (c *Console) Static(s *trellis.StaticReport) {
	if c.level < Info {
		return
	}
	c.write(c.output, fmt.Sprintf("%s %s -> %s\n",
		c.paint(color.FgRed, "STATIC"),
		c.paint(color.FgHiBlue, s.Path),
		c.paint(color.FgMagenta, s.Dir)))
}

// Warn prints a warning
func (c *Console) Warn(message string) {
	if c.level >= Warn {
		c.message(c.output, "WARN", color.FgYellow, "%s", message)
	}
}

// Error prints an error, including any hints attached to a registration
// error
func (c *Console) Error(err error) {
	if c.level < Error {
		return
	}
	c.message(c.errorOut, "ERROR", color.FgRed, "%v", err)

	var re *trellis.RegistrationError
	if errors.As(err, &re) {
		for _, hint := range re.Suggestions() {
			c.write(c.errorOut, fmt.Sprintf("  hint: %s\n", hint))
		}
	}
}

// Info prints an informational message
func (c *Console) Info(format string, args ...any) {
	if c.level >= Info {
		c.message(c.output, "INFO", color.FgBlue, format, args...)
	}
}

// Success prints a success message
func (c *Console) Success(format string, args ...any) {
	if c.level >= Info {
		c.message(c.output, "SUCCESS", color.FgGreen, format, args...)
	}
}

// Verbose prints detail shown only in verbose mode
func (c *Console) Verbose(format string, args ...any) {
	if c.level >= Verbose {
		c.message(c.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Summary prints the totals of a load pass
func (c *Console) Summary(report *trellis.Report) {
	if c.level < Info || report == nil {
		return
	}

	routes, endpoints := 0, 0
	var count func([]*trellis.RouteReport)
	count = func(rs []*trellis.RouteReport) {
		for _, r := range rs {
			routes++
			endpoints += len(r.Endpoints)
			count(r.Nested)
		}
	}
	count(report.Routes)

	c.Success("registered %d route(s), %d endpoint(s), %d static mount(s)",
		routes, endpoints, len(report.Statics))
	if len(report.Skipped) > 0 {
		names := make([]string, len(report.Skipped))
		for i, s := range report.Skipped {
			names[i] = s.Name
		}
		c.Info("skipped %d module(s): %s", len(report.Skipped), strings.Join(names, ", "))
	}
}

// RouteTable prints a flattened mount table
func (c *Console) RouteTable(entries []trellis.RouteEntry) {
	labels := make([]string, len(entries))
	width := 0
	for i, e := range entries {
		labels[i] = string(e.Method)
		if e.Dir != "" {
			labels[i] = "STATIC"
		}
		width = max(width, len(labels[i]))
	}

	var b strings.Builder
	for i, e := range entries {
		label := fmt.Sprintf("%-*s", width, labels[i])
		fmt.Fprintf(&b, "%s %s", c.paint(color.FgRed, label), c.paint(color.FgHiBlue, e.Path))
		if e.Dir != "" {
			fmt.Fprintf(&b, " -> %s", c.paint(color.FgMagenta, e.Dir))
		}
		b.WriteString("\n")
	}
	c.write(c.output, b.String())
}

func (c *Console) message(w io.Writer, level string, attr color.Attribute, format string, args ...any) {
	var b strings.Builder
	if c.showTime {
		b.WriteString(c.now().Format("15:04:05 "))
	}
	b.WriteString(c.paint(attr, "["+level+"]"))
	b.WriteString(" ")
	fmt.Fprintf(&b, format, args...)
	b.WriteString("\n")
	c.write(w, b.String())
}

func (c *Console) write(w io.Writer, s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(w, s)
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	// Check if NO_COLOR is set (standard)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb" && !color.NoColor
}
