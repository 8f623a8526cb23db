package main

import (
	"os"

	"github.com/lfcamara/b3fund/cmd/fund/commands"
)

// main is the entry point for the fund CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
