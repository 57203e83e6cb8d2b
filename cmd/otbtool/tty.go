package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// isInteractive reports whether stderr is attached to a real terminal,
// gating whether progress/status output gets an overwriting carriage
// return (interactive) or one line per update (piped/redirected, e.g.
// captured by CI).
func isInteractive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) && term.IsTerminal(int(fd))
}

// progressWriter renders a single-line, overwriting status update when
// attached to a terminal, or a plain newline-terminated line otherwise.
func progressWriter(status string) {
	if isInteractive() {
		os.Stderr.WriteString("\r\x1b[K" + status)
		return
	}
	os.Stderr.WriteString(status + "\n")
}
