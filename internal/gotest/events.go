// Package gotest turns the event stream written by "go test -json" into test
// results. It plays the role of the test runner host: results are pushed to a
// Sink as tests finish and package-level output is passed on as messages.
package gotest

import (
	"regexp"
	"strings"
	"time"
)

// Actions reported by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"
)

// TestEvent is one line of "go test -json" output.
type TestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action
}

// IsTerminal reports whether the event ends a test.
func (e TestEvent) IsTerminal() bool {
	return e.Action == ActionPass || e.Action == ActionFail || e.Action == ActionSkip
}

// framingLine matches the lines the testing package prints around a test's
// own output.
var framingLine = regexp.MustCompile(`^(=== (RUN|PAUSE|CONT|NAME)\s|--- (PASS|FAIL|SKIP): )`)

// cleanOutput trims an output line and reports whether it was written by the
// test rather than by the testing framework.
func cleanOutput(output string) (string, bool) {
	line := strings.TrimSpace(output)
	if line == "" || framingLine.MatchString(line) {
		return "", false
	}
	return line, true
}

// splitFailure derives the error message and stack trace of a failed test
// from its captured output. A panic splits at the "panic:" line.
func splitFailure(messages []string) (message, stackTrace string) {
	for i, line := range messages {
		if strings.HasPrefix(line, "panic:") {
			return line, strings.Join(messages[i+1:], "\n")
		}
	}
	if len(messages) == 0 {
		return "test failed", ""
	}
	return strings.Join(messages, "\n"), ""
}
