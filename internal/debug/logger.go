// Package debug provides process-wide diagnostic logging using log/slog
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	// logger is the global diagnostic logger instance
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	// enabled indicates if debug logging is enabled
	enabled bool
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

// Options controls where and how diagnostics are written.
type Options struct {
	// Output defaults to os.Stderr.
	Output io.Writer
	// Level is the minimum level written.
	Level slog.Level
	// JSON selects the JSON handler instead of text.
	JSON bool
}

// Init initializes the diagnostic logger.
// If enable is true, debug and above is written to os.Stderr,
// otherwise only warnings and errors are.
func Init(enable bool) {
	level := slog.LevelWarn
	if enable {
		level = slog.LevelDebug
	}
	Configure(Options{Level: level})

	mu.Lock()
	enabled = enable
	mu.Unlock()
}

// Configure replaces the global logger.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(handler)
	enabled = opts.Level <= slog.LevelDebug
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Logger returns the underlying slog.Logger instance.
// Before Init or Configure it discards everything.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
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
