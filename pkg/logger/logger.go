package logger

import (
	"io"
	"math"
	"os"
	"strings"

	charm "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// ErrInvalidLogLevel is returned when a log level name is not recognized.
var ErrInvalidLogLevel = errors.New("invalid log level")

type LogLevel string

const (
	LogLevelOff     LogLevel = "Off"
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
)

const (
	// TraceLevel is one step more verbose than charm's DebugLevel.
	TraceLevel = charm.DebugLevel - 1
	// OffLevel is above every level charm emits, so nothing is written.
	OffLevel = charm.Level(math.MaxInt32)
)

var validLevels = []LogLevel{LogLevelOff, LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning}

// ParseLogLevel converts a configured level name to a LogLevel.
// An empty name defaults to Info. Names are matched case-insensitively.
func ParseLogLevel(logLevel string) (LogLevel, error) {
	logLevel = strings.TrimSpace(logLevel)
	if logLevel == "" {
		return LogLevelInfo, nil
	}

	for _, l := range validLevels {
		if strings.EqualFold(logLevel, string(l)) {
			return l, nil
		}
	}

	return "", errors.Wrapf(ErrInvalidLogLevel,
		"'%s'. Supported log levels are Trace, Debug, Info, Warning, Off", logLevel)
}

// Level maps a LogLevel to the underlying charm level.
func (l LogLevel) Level() charm.Level {
	switch l {
	case LogLevelOff:
		return OffLevel
	case LogLevelTrace:
		return TraceLevel
	case LogLevelDebug:
		return charm.DebugLevel
	case LogLevelWarning:
		return charm.WarnLevel
	default:
		return charm.InfoLevel
	}
}

// Logger wraps a charm logger and adds a trace level.
type Logger struct {
	*charm.Logger
}

// New creates a Logger writing to stderr at Info level.
func New() *Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a Logger writing to w at Info level.
func NewWithOutput(w io.Writer) *Logger {
	return &Logger{Logger: charm.NewWithOptions(w, charm.Options{
		Level:           charm.InfoLevel,
		ReportTimestamp: false,
	})}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	l := NewWithOutput(io.Discard)
	l.SetLevel(OffLevel)
	return l
}

// SetLogLevel applies a parsed LogLevel.
func (l *Logger) SetLogLevel(level LogLevel) {
	l.SetLevel(level.Level())
}

// Trace logs at TraceLevel.
func (l *Logger) Trace(msg interface{}, keyvals ...interface{}) {
	l.Log(TraceLevel, msg, keyvals...)
}

// OpenOutput resolves a configured log file to a writer.
// An empty file, "/dev/stderr" and "/dev/stdout" map to the standard streams and
// need no closing; anything else is opened for appending.
func OpenOutput(file string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch file {
	case "", "/dev/stderr":
		return os.Stderr, noop, nil
	case "/dev/stdout":
		return os.Stdout, noop, nil
	}

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, noop, errors.Wrapf(err, "open log file %s", file)
	}
	return f, f.Close, nil
}
