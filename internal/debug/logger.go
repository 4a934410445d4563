// Package debug is the engine's structured logger, built on log/slog.
//
// Logging is off until Init or Configure is called; until then every record is discarded, so library
// packages can log freely without the embedding program opting in.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures the logger.
type Options struct {
	Enabled bool
	Level   slog.Level
	Format  Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled bool
	mu      sync.RWMutex
)

// Init turns debug-level logging to stderr on or off.
func Init(enable bool) {
	Configure(Options{Enabled: enable, Level: slog.LevelDebug})
}

// Configure replaces the global logger.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	enabled = opts.Enabled
	if !opts.Enabled {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.Format == FormatJSON {
		h = slog.NewJSONHandler(out, hopts)
	} else {
		h = slog.NewTextHandler(out, hopts)
	}
	logger = slog.New(h).With("component", "schema-engine")
}

// ParseLevel accepts debug, info, warn and error. Anything else is debug.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Enabled reports whether logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }

func Info(msg string, args ...any) { current().Info(msg, args...) }

func Warn(msg string, args ...any) { current().Warn(msg, args...) }

func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Logger returns the underlying logger.
func Logger() *slog.Logger {
	return current()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
