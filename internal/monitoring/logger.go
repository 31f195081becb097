// Package monitoring provides structured logging via zerolog.
//
// DESIGN: Thin wrapper around zerolog with:
//   - Configurable level, format (json/console), output (stdout/stderr/file)
//   - ForHooks() returns the hook-path logger: silent unless debug is on,
//     in which case it appends to <data dir>/hook.log
//
// Hooks run inside the host agent's tool loop, so the hook logger must never
// write to stdout (stdout is the hook protocol channel) and must never fail
// the caller.
package monitoring

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// HookLogName is the debug log file inside the data directory.
const HookLogName = "hook.log"

// LoggerConfig selects level, format, and destination.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout, stderr, or a file path
}

// Logger wraps zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New creates a new Logger with the given configuration.
func New(cfg LoggerConfig) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			writer = os.Stderr
		} else {
			writer = f
		}
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything. Used in tests and on the
// hook path when debug is off.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ForHooks returns the logger used by hook and wrap entry points. When debug
// is off it is a no-op; when on, it appends JSON lines to dataDir/hook.log.
// Any failure to open the file silently degrades to no-op.
func ForHooks(dataDir string, debug bool) *Logger {
	if !debug {
		return Nop()
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return Nop()
	}
	path := filepath.Join(dataDir, HookLogName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return Nop()
	}
	zl := zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Debug returns a debug event.
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info returns an info event.
func (l *Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn returns a warn event.
func (l *Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error returns an error event.
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal returns a fatal event.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}
