// Package logger builds the leveled loggers used across the simulator.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// defaultLogFormat defines the format used for log output.
const defaultLogFormat = "%{time:2006/01/02 15:04:05} %{color}%{level:-8s} " +
	"%{shortpkg}/%{shortfunc}%{color:reset}: %{message}"

// plainLogFormat is used when the output is not a terminal.
const plainLogFormat = "%{time:2006/01/02 15:04:05} %{level:-8s} " +
	"%{shortpkg}/%{shortfunc}: %{message}"

// Logger is what the simulator needs from a logger.
// Critical is for states the run cannot recover from.
// Error is for failed operations.
// Warning is for input that is skipped or adjusted.
// Notice is for milestones, like a finished trace.
// Info is for regular progress.
// Debug is for per-access output.
type Logger interface {
	Critical(args ...any)
	Criticalf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Warning(args ...any)
	Warningf(format string, args ...any)
	Notice(args ...any)
	Noticef(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Debug(args ...any)
	Debugf(format string, args ...any)
	IsEnabledFor(level logging.Level) bool
}

// NewLogger creates a logger for a module that writes to stderr. Unknown
// levels fall back to INFO.
func NewLogger(level string, module string) *logging.Logger {
	return NewLoggerWithWriter(os.Stderr, true, level, module)
}

// NewLoggerWithWriter creates a logger for a module that writes to w.
func NewLoggerWithWriter(
	w io.Writer,
	colored bool,
	level string,
	module string,
) *logging.Logger {
	backend := logging.NewLogBackend(w, "", 0)

	format := plainLogFormat
	if colored {
		format = defaultLogFormat
	}

	fm := logging.MustStringFormatter(format)
	fmtBackend := logging.NewBackendFormatter(backend, fm)

	lvl := ParseLevel(level)
	lvlBackend := logging.AddModuleLevel(fmtBackend)
	lvlBackend.SetLevel(lvl, "")

	// IsEnabledFor consults the package-level backend, keyed by module.
	logging.SetLevel(lvl, module)

	l := logging.MustGetLogger(module)
	l.SetBackend(lvlBackend)

	return l
}

// ParseLevel converts "critical", "error", "warning", "notice", "info" or
// "debug" into a logging level. It is not case-sensitive.
func ParseLevel(level string) logging.Level {
	lvl, err := logging.LogLevel(strings.ToUpper(strings.TrimSpace(level)))
	if err != nil {
		return logging.INFO
	}

	return lvl
}

// Discard returns a logger that drops everything.
func Discard() *logging.Logger {
	return NewLoggerWithWriter(io.Discard, false, "critical", "discard")
}
