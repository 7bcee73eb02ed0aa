package models

import "time"

// Outcome is the result of executing a single test case, as reported by the
// test runner.
type Outcome string

const (
	OutcomePassed   Outcome = "Passed"
	OutcomeFailed   Outcome = "Failed"
	OutcomeSkipped  Outcome = "Skipped"
	OutcomeNotFound Outcome = "NotFound"
	OutcomeNone     Outcome = "None"
)

// TRX returns the label written to the outcome attribute of a TRX result.
// Skipped tests are reported as NotExecuted.
func (o Outcome) TRX() string {
	if o == OutcomeSkipped {
		return "NotExecuted"
	}
	if o == "" {
		return string(OutcomeNone)
	}
	return string(o)
}

// IsExecuted reports whether a result with this outcome counts as executed.
func (o Outcome) IsExecuted() bool {
	return o != OutcomeSkipped
}

// IsInconclusive reports whether the outcome is counted as inconclusive.
func (o Outcome) IsInconclusive() bool {
	switch o {
	case OutcomeSkipped, OutcomeNotFound, OutcomeNone, "":
		return true
	}
	return false
}

// TestResult is one outcome for one executed test case. It is created by the
// producer when the test finishes and must not be modified afterwards;
// records are passed around by pointer and the pointer is their identity.
type TestResult struct {
	// FullName uniquely qualifies the test, e.g. Namespace.Class.Method.
	FullName    string        `json:"full_name"`
	DisplayName string        `json:"display_name"`
	Source      string        `json:"source"`
	Outcome     Outcome       `json:"outcome"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	Messages    []string      `json:"messages,omitempty"`

	ErrorMessage    string `json:"error_message,omitempty"`
	ErrorStackTrace string `json:"error_stack_trace,omitempty"`
}

// HasError reports whether the result carries an error message or stack trace.
func (r *TestResult) HasError() bool {
	return r.ErrorMessage != "" || r.ErrorStackTrace != ""
}
