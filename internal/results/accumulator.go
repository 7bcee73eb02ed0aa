// Package results collects the test results reported during a run.
package results

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/spboyer/trxlogger/internal/models"
)

// ErrClosed is returned when a result arrives after the run completed.
var ErrClosed = errors.New("result accumulator is closed")

// Accumulator is an append-only, insertion-ordered collection of results.
// Append is safe for concurrent use. Repeated results for the same test,
// such as retries, are all kept.
type Accumulator struct {
	mu            sync.Mutex
	records       []*models.TestResult
	closed        bool
	ignoreSkipped bool
	ignored       int
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithIgnoreFilter drops results that look like ignored tests when enabled.
// See IsIgnored.
func WithIgnoreFilter(enabled bool) Option {
	return func(a *Accumulator) {
		a.ignoreSkipped = enabled
	}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsIgnored reports whether r looks like a test that was excluded by its
// author rather than skipped at runtime. Runners don't report that
// distinction, so a skipped result without any captured messages is taken
// as ignored. This is an approximation: a test ignored with an explanatory
// message is not recognized.
func IsIgnored(r *models.TestResult) bool {
	return r.Outcome == models.OutcomeSkipped && len(r.Messages) == 0
}

// Append adds r. It returns ErrClosed once Close has been called.
func (a *Accumulator) Append(r *models.TestResult) error {
	if r == nil {
		return errors.New("nil test result")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.ignoreSkipped && IsIgnored(r) {
		a.ignored++
		slog.Debug("Ignoring skipped test", "test", r.FullName)
		return nil
	}
	a.records = append(a.records, r)
	return nil
}

// Drain appends every result received on ch until ch is closed or ctx is
// done. Results rejected by Append are logged and skipped.
func (a *Accumulator) Drain(ctx context.Context, ch <-chan *models.TestResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-ch:
			if !ok {
				return nil
			}
			if err := a.Append(r); err != nil {
				slog.Warn("Dropping test result", "error", err)
			}
		}
	}
}

// Close stops accepting results. It is safe to call more than once.
func (a *Accumulator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Records returns a snapshot of the results in insertion order.
func (a *Accumulator) Records() []*models.TestResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*models.TestResult(nil), a.records...)
}

// Len returns the number of results kept.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Ignored returns the number of results dropped by the ignore filter.
func (a *Accumulator) Ignored() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ignored
}
