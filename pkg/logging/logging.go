package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-writer logger with timestamps. Services receive it
// by value; zerolog loggers are safe to copy and use concurrently.
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	return zerolog.New(cw).With().Timestamp().Logger().Level(level)
}
