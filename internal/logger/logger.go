// Package logger wraps a process-wide zerolog logger. Output goes to stderr
// because stdout carries command results and the MCP stdio transport.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

// Init configures the global logger with the given level.
// level can be: "debug", "info", "warn", "error", "disabled".
// Console mode writes human-friendly lines instead of JSON.
func Init(level string, console bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}

	var writer io.Writer = os.Stderr
	if console {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	set(zerolog.New(writer).Level(lvl).With().Timestamp().Logger())
}

// SetOutput redirects the logger, keeping its level. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Output(w)
}

func set(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func init() {
	Init("warn", true)
}

// Get returns the underlying logger for advanced usage.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug() *zerolog.Event { l := Get(); return l.Debug() }
func Info() *zerolog.Event  { l := Get(); return l.Info() }
func Warn() *zerolog.Event  { l := Get(); return l.Warn() }
func Error() *zerolog.Event { l := Get(); return l.Error() }

// Warnf provides printf-style logging at warn level.
func Warnf(format string, v ...any) {
	Warn().Msgf(format, v...)
}

// Infof provides printf-style logging at info level.
func Infof(format string, v ...any) {
	Info().Msgf(format, v...)
}
