// Package main provides the entry point for the treesum CLI.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := Execute()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}

	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	os.Exit(1)
}

// Exit codes besides 0 and 1.
const (
	// exitSkipped means output was produced but some entries were left out.
	exitSkipped = 2

	// exitInterrupted means the scan was cancelled by a signal.
	exitInterrupted = 130
)

// exitError ends the process with a specific status. The command has
// already reported the problem on stderr.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
