// Package logger is the surface a test host talks to during a run. Results
// and messages arrive while tests execute; when the run completes the
// collected results are written out as a TRX report.
package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spboyer/trxlogger/internal/metadata"
	"github.com/spboyer/trxlogger/internal/models"
	"github.com/spboyer/trxlogger/internal/publish"
	"github.com/spboyer/trxlogger/internal/reporting"
	"github.com/spboyer/trxlogger/internal/results"
)

// ErrAlreadyCompleted is returned by OnRunComplete after the first call.
var ErrAlreadyCompleted = errors.New("run already completed")

// Config controls where and how the report is written.
type Config struct {
	// OutputDir is the directory the report is written to.
	OutputDir string
	// FileName overrides the default "{user}_{host} {timestamp}.trx" name.
	FileName string
	// IgnoreSkipped drops skipped tests that captured no output.
	IgnoreSkipped bool
	// Archive also writes a gzip copy of the report.
	Archive bool
	// Publisher, if set, uploads the report after it is written.
	Publisher publish.Publisher
	// Identity overrides the user and host written to the report.
	Identity reporting.RunIdentity
}

// Logger collects the results of one run.
type Logger struct {
	cfg      Config
	provider metadata.Provider
	started  time.Time
	now      func() time.Time
	acc      *results.Accumulator

	mu        sync.Mutex
	completed bool
}

// New returns a logger for a run starting now. provider recovers test
// metadata; when nil, metadata is read from manifests next to each test
// binary.
func New(cfg Config, provider metadata.Provider) *Logger {
	if provider == nil {
		provider = metadata.NewCache(metadata.NewManifestLoader(""))
	}
	if cfg.Identity == (reporting.RunIdentity{}) {
		cfg.Identity = reporting.LocalIdentity()
	}
	return &Logger{
		cfg:      cfg,
		provider: provider,
		started:  time.Now(),
		now:      time.Now,
		acc:      results.NewAccumulator(results.WithIgnoreFilter(cfg.IgnoreSkipped)),
	}
}

// OnResult records one finished test. Problems with a single result are
// logged and never stop the run.
func (l *Logger) OnResult(r *models.TestResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Failed to record test result", "panic", p)
		}
	}()

	if err := l.acc.Append(r); err != nil {
		name := ""
		if r != nil {
			name = r.FullName
		}
		slog.Warn("Failed to record test result", "test", name, "error", err)
	}
}

// OnMessage passes a diagnostic message from the host through to the log.
func (l *Logger) OnMessage(text string) {
	slog.Info(text)
}

// Records returns the results recorded so far.
func (l *Logger) Records() []*models.TestResult {
	return l.acc.Records()
}

// Count returns the number of results recorded so far.
func (l *Logger) Count() int {
	return l.acc.Len()
}

// Ignored returns the number of results dropped as ignored tests.
func (l *Logger) Ignored() int {
	return l.acc.Ignored()
}

// OnRunComplete stops accepting results and writes the report, returning its
// path. It runs at most once.
func (l *Logger) OnRunComplete(ctx context.Context, summary models.RunSummary) (string, error) {
	l.mu.Lock()
	if l.completed {
		l.mu.Unlock()
		return "", ErrAlreadyCompleted
	}
	l.completed = true
	l.mu.Unlock()

	l.acc.Close()
	records := l.acc.Records()

	slog.Info("Generating TRX report", "records", len(records), "ignored", l.acc.Ignored())

	assembler := reporting.NewAssembler(l.provider,
		reporting.WithClock(l.now),
		reporting.WithRunStarted(l.started),
		reporting.WithIdentity(l.cfg.Identity),
	)
	doc, err := assembler.Assemble(records, summary)
	if err != nil {
		return "", fmt.Errorf("assembling TRX report: %w", err)
	}
	reporting.Normalize(doc)

	path := reporting.ResolvePath(l.cfg.OutputDir, l.cfg.FileName, l.cfg.Identity, l.now())
	if err := reporting.Write(doc, path); err != nil {
		return "", err
	}
	slog.Info("Results file", "path", path)

	if l.cfg.Archive {
		archive, err := reporting.WriteArchive(path)
		if err != nil {
			return path, err
		}
		slog.Info("Results archive", "path", archive)
	}

	if l.cfg.Publisher != nil {
		url, err := l.cfg.Publisher.Publish(ctx, path)
		if err != nil {
			return path, fmt.Errorf("publishing results file: %w", err)
		}
		slog.Info("Published results file", "url", url)
	}

	if c, ok := l.provider.(*metadata.Cache); ok {
		stats := c.Stats()
		slog.Debug("Metadata cache", "binaries", stats.Binaries, "tests", stats.Tests, "loads", stats.Loads, "hits", stats.Hits)
	}

	return path, nil
}
