package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a logger writing to stderr. Stdout is reserved for PEM output.
func Setup(dev bool) zerolog.Logger {
	return New(os.Stderr, dev)
}

// New returns a JSON logger at info level, or a console logger at debug
// level with stack traces when dev is set.
func New(w io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Operation logs the start of a named operation at debug level and returns
// a func that logs its outcome and duration. Failures log at error level.
func Operation(logger zerolog.Logger, name string) func(err error) {
	started := time.Now()
	logger.Debug().Str("operation", name).Msg("operation started")

	return func(err error) {
		if err != nil {
			logger.Error().
				Err(err).
				Str("operation", name).
				Dur("duration", time.Since(started)).
				Msg("operation failed")
			return
		}

		logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(started)).
			Msg("operation finished")
	}
}

// Fingerprint adds the key fingerprint to evt, or the error that prevented
// computing it.
func Fingerprint(evt *zerolog.Event, fingerprint string, err error) *zerolog.Event {
	if err != nil {
		return evt.AnErr("fingerprint_error", err)
	}

	return evt.Str("fingerprint", fingerprint)
}
