// Package main provides the entry point for the astrostat CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/astrostat/cmd/astrostat/commands"
)

// exitCodeValidationFailure is the exit code for documents failing validation.
const exitCodeValidationFailure = 2

func main() {
	err := commands.NewRootCommand().Execute()
	if err == nil {
		return
	}

	if errors.Is(err, commands.ErrValidationFailed) {
		os.Exit(exitCodeValidationFailure)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
