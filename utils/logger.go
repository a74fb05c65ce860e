package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Logger provides leveled logging throughout the application. Messages are
// printf-style; structured attributes are attached with With.
type Logger struct {
	l *slog.Logger
}

// NewLogger creates a colourised Logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWithOptions(os.Stdout, "info", true)
}

// NewLoggerTo creates a plain-text Logger writing to w.
func NewLoggerTo(w io.Writer, level string) *Logger {
	return NewLoggerWithOptions(w, level, false)
}

// NewLoggerWithOptions creates a Logger for w. With color set, the tint handler
// is used; otherwise the slog text handler.
func NewLoggerWithOptions(w io.Writer, level string, color bool) *Logger {
	lvl := parseLevel(level)

	var handler slog.Handler
	if color {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	return &Logger{l: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
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

// With returns a child logger that attaches key=value to every message.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{l: l.l.With(key, value)}
}

func (l *Logger) Info(format string, args ...any) {
	l.l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.l.Debug(fmt.Sprintf(format, args...))
}
