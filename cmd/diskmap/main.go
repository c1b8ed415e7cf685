package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "diskmap",
		Short:   "Scan a directory tree and project it as a treemap",
		Version: version,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newRootsCmd())
	root.AddCommand(newRescanCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
