// Package main is the entry point for the poolchem CLI.
package main

import (
	"os"

	"poolchem/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
