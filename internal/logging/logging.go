// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// IsProduction reports whether env names a production environment
func IsProduction(env string) bool {
	return env == "prod" || env == "production"
}

// ParseLevel converts a level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a JSON handler in production and a tint console
// handler otherwise.
func NewHandler(w io.Writer, env, level string) slog.Handler {
	lvl := ParseLevel(level)

	if IsProduction(env) {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    !isTerminal(w),
	})
}

// Setup installs the logger as slog's default and routes the standard
// library logger through it. Engines that log with package log end up in
// the same stream.
func Setup(w io.Writer, env, level string) *slog.Logger {
	logger := slog.New(NewHandler(w, env, level))
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
	return logger
}

// Writer adapts a logger to an io.Writer for engines that only accept one,
// such as gin's DefaultWriter.
func Writer(logger *slog.Logger, level slog.Level) io.Writer {
	return slog.NewLogLogger(logger.Handler(), level).Writer()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
