// Command otbtool is a headless driver over the OTB/DAT/SPR core: read,
// write, validate, and backup management, for scripting and CI use
// where the embedding GUI is not present.
package main

import (
	"fmt"
	"os"
)

// Exit codes per error category: file access problems, validation
// failures, and internal/unexpected errors get distinct codes so
// calling scripts can branch on them.
const (
	exitOK         = 0
	exitFileError  = 2
	exitValidation = 3
	exitInternal   = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitInternal
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "read":
		err = runRead(rest)
	case "write":
		err = runWrite(rest)
	case "validate":
		err = runValidate(rest)
	case "backup":
		return runBackup(rest)
	case "-h", "--help", "help":
		usage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "otbtool: unknown command %q\n", cmd)
		usage()
		return exitInternal
	}

	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "otbtool:", err)
	return categorize(err)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  otbtool read <path>
  otbtool write <items.json> <path.otb>
  otbtool validate <path> [--level=basic|standard|thorough|paranoid]
  otbtool backup create <path> [--dir=DIR] [--kind=KIND] [--desc=TEXT]
  otbtool backup list <path> [--dir=DIR]
  otbtool backup restore <path> [--dir=DIR] [--timestamp=RFC3339]`)
}
