package models

import "time"

// RunSummary describes the completed test run. There is exactly one per run.
type RunSummary struct {
	Aborted    bool      `json:"aborted"`
	Canceled   bool      `json:"canceled"`
	StartTime  time.Time `json:"start_time"`
	FinishTime time.Time `json:"finish_time"`
}

// Outcome returns the run-level outcome written to the ResultSummary element.
func (s RunSummary) Outcome() string {
	switch {
	case s.Aborted:
		return "Aborted"
	case s.Canceled:
		return "Canceled"
	default:
		return "Completed"
	}
}

// Counters holds the aggregate counts that are tracked for a run. The TRX
// schema defines more counters than these; the rest are always zero.
type Counters struct {
	Executed     int `json:"executed"`
	Failed       int `json:"failed"`
	Inconclusive int `json:"inconclusive"`
	NotExecuted  int `json:"not_executed"`
	Passed       int `json:"passed"`
	Total        int `json:"total"`
}

// CountResults aggregates counters over records. The result depends only on
// the outcomes, so replaying the same records yields the same counts.
func CountResults(records []*TestResult) Counters {
	c := Counters{Total: len(records)}
	for _, r := range records {
		if r.Outcome.IsExecuted() {
			c.Executed++
		} else {
			c.NotExecuted++
		}
		if r.Outcome.IsInconclusive() {
			c.Inconclusive++
		}
		switch r.Outcome {
		case OutcomePassed:
			c.Passed++
		case OutcomeFailed:
			c.Failed++
		}
	}
	return c
}
