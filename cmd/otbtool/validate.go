package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ernie/otbcore/internal/validate"
)

func runValidate(args []string) error {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	level := fs.String("level", "standard", "basic|standard|thorough|paranoid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: otbtool validate <path> [--level=basic|standard|thorough|paranoid]")
	}
	path := fs.Arg(0)

	lvl, err := parseLevel(*level)
	if err != nil {
		return err
	}

	result, err := validate.File(path, lvl, validate.Options{})
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid=%v\n", lvl, result.IsValid)
	if result.Statistics.FileSize > 0 {
		fmt.Println(result.Statistics.String())
	}
	for _, e := range result.Errors {
		fmt.Println("error:", e)
	}
	for _, w := range result.Warnings {
		fmt.Println("warning:", w)
	}
	for _, s := range result.Suggestions {
		fmt.Println("suggestion:", s)
	}

	if !result.IsValid {
		return &exitError{code: exitValidation, err: fmt.Errorf("validation failed at level %s", lvl)}
	}
	return nil
}

func parseLevel(s string) (validate.Level, error) {
	switch s {
	case "basic":
		return validate.Basic, nil
	case "standard":
		return validate.Standard, nil
	case "thorough":
		return validate.Thorough, nil
	case "paranoid":
		return validate.Paranoid, nil
	default:
		return 0, fmt.Errorf("unknown validation level %q", s)
	}
}
