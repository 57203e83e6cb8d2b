package main

import (
	"fmt"

	"github.com/ernie/otbcore/internal/otb"
)

func runRead(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: otbtool read <path>")
	}
	path := args[0]

	progressWriter("reading " + path)
	result, err := otb.Read(path, otb.ReadOptions{})
	if err != nil {
		return err
	}
	progressWriter("done")
	if isInteractive() {
		fmt.Println()
	}

	fmt.Printf("version %d.%d.%d, client %d\n",
		result.List.Version.Major, result.List.Version.Minor, result.List.Version.Build, result.List.Version.ClientVersion)
	fmt.Printf("%d items, range %d-%d\n", result.List.Len(), result.List.Range.MinID, result.List.Range.MaxID)
	for _, w := range result.Warnings {
		fmt.Println("warning:", w)
	}
	return nil
}
