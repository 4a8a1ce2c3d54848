// Package main provides the entry point for the dustat CLI.
package main

import (
	"os"

	"github.com/dustat/dustat/pkg/dustat/logging"
)

func main() {
	err := Execute()

	// The log file outlives every subcommand; close it exactly once,
	// and let a close failure fail the run.
	if closeErr := logging.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Exit(1)
	}
}
