package main

import (
	"fmt"
	"os"

	"github.com/temirov/repodoc/internal/cli"
	"github.com/temirov/repodoc/internal/utils"
)

const (
	exitCodeFailure    = 1
	exitCodeUsageError = 2
)

// main is the entry point for the repodoc command.
func main() {
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		fmt.Fprintf(os.Stderr, utils.ErrorLogFormat+"\n", applicationExecutionError)
		if cli.IsUsageError(applicationExecutionError) {
			os.Exit(exitCodeUsageError)
		}
		os.Exit(exitCodeFailure)
	}
}
