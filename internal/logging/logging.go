// Package logging builds the application logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w (os.Stderr when nil) with timestamps and
// caller reporting enabled.
func New(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Forward logs every line received on lines at debug level until the channel
// is closed. It is used for output captured from C libraries.
func Forward(l *log.Logger, source string, lines <-chan string) {
	l = l.With("source", source)
	for line := range lines {
		l.Debug(line)
	}
}
