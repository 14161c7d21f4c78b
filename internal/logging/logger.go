// Package logging provides structured logging for the CLI and the download manager.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// TimeFormat is used by the console writer
const TimeFormat = "15:04:05"

// Logger wraps zerolog with format-specific behavior.
type Logger struct {
	zlog   zerolog.Logger
	format string
}

// NewLogger creates a logger writing to w in the given format.
// Anything other than FormatJSON falls back to the console writer.
// Pass a progress bar writer as w to keep log lines above the bars.
func NewLogger(w io.Writer, format string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if format == FormatJSON {
		return &Logger{zlog: zerolog.New(w).With().Timestamp().Logger(), format: format}
	}
	return &Logger{
		zlog: zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: TimeFormat,
		}).With().Timestamp().Logger(),
		format: format,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), format: FormatConsole}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Child returns a new Logger built from ctx, keeping this logger's output settings.
func (l *Logger) Child(ctx zerolog.Context) *Logger {
	return &Logger{zlog: ctx.Logger(), format: l.format}
}

// ParseLevel maps a config string to a zerolog level. Unknown values yield info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
