// Package log provides the structured logger shared by the export pipeline packages.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(New(os.Stderr, "info", "json"))
}

// New builds a slog logger writing to w. Format is "json" or "text";
// level is one of debug, info, warn, error (unknown values mean info).
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name onto a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Setup replaces the package logger with one built from level and format.
func Setup(w io.Writer, level, format string) {
	SetLogger(New(w, level, format))
}

// Discard silences the package logger. Tests use it to keep output clean.
func Discard() {
	SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger allows setting a custom logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// GetLogger returns the current logger instance.
func GetLogger() *slog.Logger {
	return logger.Load()
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}
