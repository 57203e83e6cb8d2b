package progress

import (
	"log"
	"os"
)

// Logger wraps the standard library's log.Logger, injected at
// construction rather than used as a package-level global. Verbosity is
// binary: on or off, matching the plain log.Printf call sites this
// toolkit's groundwork uses throughout.
type Logger struct {
	*log.Logger
	verbose bool
}

// NewLogger builds a Logger writing to os.Stderr with a standard
// timestamp prefix. When verbose is false, Debugf is a no-op.
func NewLogger(prefix string, verbose bool) *Logger {
	return &Logger{
		Logger:  log.New(os.Stderr, prefix, log.LstdFlags),
		verbose: verbose,
	}
}

// Debugf logs only when the Logger was constructed with verbose=true.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.Printf(format, args...)
}
