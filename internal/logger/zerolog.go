package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures a zerolog backend.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Pretty switches to human-readable console output.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a zerolog-backed Logger from cfg.
func New(cfg Config) *ZerologAdapter {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", "quill").
		Logger()
	return NewZerologAdapter(zl)
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// ZerologAdapter forwards to a zerolog logger. Key-value pairs become fields.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps a zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug logs at debug level.
func (a *ZerologAdapter) Debug(msg string, args ...any) {
	withFields(a.logger.Debug(), args).Msg(msg)
}

// Info logs at info level.
func (a *ZerologAdapter) Info(msg string, args ...any) {
	withFields(a.logger.Info(), args).Msg(msg)
}

// Warn logs at warn level.
func (a *ZerologAdapter) Warn(msg string, args ...any) {
	withFields(a.logger.Warn(), args).Msg(msg)
}

// Error logs at error level.
func (a *ZerologAdapter) Error(msg string, args ...any) {
	withFields(a.logger.Error(), args).Msg(msg)
}

// withFields attaches alternating key-value args to the event. A trailing key
// without a value is logged under "!BADKEY", as log/slog does.
func withFields(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			e = e.Interface("!BADKEY", key)
			break
		}
		switch v := args[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
