package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes. CI pipelines that publish the TRX file as a build artifact
// should treat ExitTestFailed differently from ExitError: the former means
// a report was written, the latter that there may be none.
const (
	ExitSuccess    = 0 // Report written, no failed tests
	ExitTestFailed = 1 // Report written, it contains failed tests
	ExitError      = 2 // No complete report: bad input, config or I/O
)

// TestFailureError is returned by convert after the report was written when
// at least one test in it failed.
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return e.Message
}

// exitCode maps the error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var testFailureErr *TestFailureError
	if errors.As(err, &testFailureErr) {
		return ExitTestFailed
	}
	return ExitError
}

func main() {
	err := execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
