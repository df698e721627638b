// ABOUTME: Structured logging configuration using log/slog
// ABOUTME: Provides Init() for the CLI and OpenFile() for the TUI's debug.log sink

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the level, format and destination of the default logger
type Options struct {
	// Level is debug, info, warn or error (default: warn)
	Level string
	// Format is text or json (default: text)
	Format string
	// Output defaults to stderr so command output stays parseable
	Output io.Writer
}

// Init configures the default slog logger and returns it.
// Empty option fields fall back to LOG_LEVEL and LOG_FORMAT.
func Init(opts Options) *slog.Logger {
	if opts.Level == "" {
		opts.Level = os.Getenv("LOG_LEVEL")
	}
	if opts.Format == "" {
		opts.Format = os.Getenv("LOG_FORMAT")
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	l := New(opts)
	slog.SetDefault(l)
	return l
}

// New builds a logger without touching the default
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}

	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		handler = slog.NewJSONHandler(out, hopts)
	} else {
		handler = slog.NewTextHandler(out, hopts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// OpenFile opens debug.log in configDir for appending.
// The TUI owns the terminal, so its logs go here instead.
func OpenFile(configDir string) (*os.File, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(configDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}
