// Package debug provides process-wide structured logging on log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug level. Otherwise only warnings and errors are written.
	Verbose bool

	// Format is "text" (default) or "json".
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	// logger is the global logger instance
	logger *slog.Logger
	// enabled indicates if debug logging is enabled
	enabled bool
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

func init() {
	Init(Options{})
}

// Init replaces the global logger.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	enabled = opts.Verbose
	logger = slog.New(handler)
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
