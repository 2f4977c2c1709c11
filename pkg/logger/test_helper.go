package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a Logger that discards output.
func NewTestLogger() Logger {
	return Nop()
}

// NewBufferedTestLogger writes JSON lines to w at debug level, so tests can
// assert on emitted fields.
func NewBufferedTestLogger(w io.Writer) Logger {
	return Logger{Logger: zerolog.New(w).Level(zerolog.DebugLevel)}
}
