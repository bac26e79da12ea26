package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StatusTimeFormat is the local timestamp printed in front of every status line.
const StatusTimeFormat = "2006-01-02 15:04:05.000"

// Init initializes the global diagnostic logger. Diagnostics go to stderr so
// they never interleave with the status lines on stdout.
func Init(levelStr string) zerolog.Level {
	levelStr = strings.ToLower(levelStr)
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		if levelStr != "" {
			fmt.Fprintf(os.Stderr, "Unknown log level '%s', defaulting to 'info'\n", levelStr)
		}
		level = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
	}

	log.Logger = zerolog.New(consoleWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	Debug().Msgf("Diagnostic logger initialized with level: %s", level.String())
	return level
}

// WithComponent returns a child of the global logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// StatusOptions configures a status-line logger.
type StatusOptions struct {
	Color bool
	Now   func() time.Time
}

// NewStatus returns a logger that prints "<local timestamp> <message>" lines,
// without level or caller decoration, to w.
func NewStatus(w io.Writer, opts StatusOptions) zerolog.Logger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !opts.Color,
		TimeFormat:   StatusTimeFormat,
		PartsExclude: []string{zerolog.LevelFieldName},
	}
	return zerolog.New(consoleWriter).Hook(statusClock{now: opts.Now})
}

// statusClock stamps events with sub-second precision regardless of the
// process-wide zerolog.TimeFieldFormat.
type statusClock struct {
	now func() time.Time
}

func (c statusClock) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(zerolog.TimestampFieldName, c.now().Format(time.RFC3339Nano))
}

// Debug starts a new message with debug level.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info starts a new message with info level.
func Info() *zerolog.Event {
	return log.Info()
}

// Warn starts a new message with warning level.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error starts a new message with error level.
func Error() *zerolog.Event {
	return log.Error()
}
