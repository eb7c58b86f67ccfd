// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process and returns the root logger.
func Setup(environment string, trace bool) zerolog.Logger {
	return SetupWithWriter(environment, trace, os.Stderr)
}

// SetupWithWriter is Setup with an explicit destination. Output is
// human-readable; stdout stays free for the command loop.
func SetupWithWriter(environment string, trace bool, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}
	if trace {
		level = zerolog.TraceLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: w}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
