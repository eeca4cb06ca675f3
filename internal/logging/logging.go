// Package logging builds the application's slog logger and adapts it to the
// Wails runtime logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
)

// New returns a tinted text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromEnv builds the stderr logger honoring WHISPER_GUI_LOG_LEVEL.
func FromEnv() *slog.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("WHISPER_GUI_LOG_LEVEL")))
}

// Err returns an error attribute.
func Err(err error) slog.Attr {
	return tint.Err(err)
}

// WailsLogger routes Wails runtime logs into slog.
type WailsLogger struct {
	logger *slog.Logger
	exit   func(code int)
}

var _ wailslogger.Logger = (*WailsLogger)(nil)

// NewWailsLogger wraps logger for options.App.Logger.
func NewWailsLogger(logger *slog.Logger) *WailsLogger {
	return &WailsLogger{
		logger: logger.With(slog.String("component", "wails")),
		exit:   os.Exit,
	}
}

func (l *WailsLogger) log(level slog.Level, message string) {
	l.logger.Log(context.Background(), level, strings.TrimRight(message, "\n"))
}

// Print logs an unlevelled message at info.
func (l *WailsLogger) Print(message string) { l.log(slog.LevelInfo, message) }

// Trace logs below debug.
func (l *WailsLogger) Trace(message string) { l.log(slog.LevelDebug-4, message) }

// Debug logs at debug.
func (l *WailsLogger) Debug(message string) { l.log(slog.LevelDebug, message) }

// Info logs at info.
func (l *WailsLogger) Info(message string) { l.log(slog.LevelInfo, message) }

// Warning logs at warn.
func (l *WailsLogger) Warning(message string) { l.log(slog.LevelWarn, message) }

// Error logs at error.
func (l *WailsLogger) Error(message string) { l.log(slog.LevelError, message) }

// Fatal logs at error and exits.
func (l *WailsLogger) Fatal(message string) {
	l.log(slog.LevelError, message)
	l.exit(1)
}
