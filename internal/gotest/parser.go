package gotest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spboyer/trxlogger/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultMaxLineSize = 4 * 1024 * 1024

// Sink receives the results and messages of a run.
type Sink interface {
	OnResult(r *models.TestResult)
	OnMessage(text string)
}

// Options configures parsing.
type Options struct {
	// Sources maps package import paths to the test binary built for them.
	// Packages without an entry use the import path as the source.
	Sources map[string]string
	// MaxLineSize bounds a single event line. Longer lines are skipped with a
	// warning. Zero means 4 MiB.
	MaxLineSize int
}

func (o Options) maxLine() int {
	if o.MaxLineSize > 0 {
		return o.MaxLineSize
	}
	return defaultMaxLineSize
}

func (o Options) source(pkg string) string {
	if src, ok := o.Sources[pkg]; ok && src != "" {
		return src
	}
	return pkg
}

// Outcome describes how a stream ended.
type Outcome struct {
	// Results is the number of results sent to the sink.
	Results int
	// Aborted is set when tests started but never finished, for example
	// because the test binary crashed or timed out.
	Aborted bool
}

type testKey struct {
	pkg  string
	test string
}

type runningTest struct {
	start  time.Time
	output []string
}

type parser struct {
	opts    Options
	sink    Sink
	running map[testKey]*runningTest
	order   []testKey
	results int
	maxLine int
}

// readLine returns the next line of br without its line ending. A line longer
// than limit is consumed but not returned; oversized reports that case.
func readLine(br *bufio.Reader, limit int) (line []byte, oversized bool, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || oversized) {
				return line, oversized, nil
			}
			return nil, false, err
		}
		if !oversized {
			if len(line)+len(chunk) > limit {
				oversized, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, oversized, nil
		}
	}
}

// Feed reads one "go test -json" stream from r until EOF, pushing every
// finished test to sink. Lines that are not JSON events, such as build
// errors, are passed to sink as messages. Lines over the size limit are
// skipped and the stream continues. If ctx is canceled Feed stops and returns
// ctx.Err().
func Feed(ctx context.Context, r io.Reader, sink Sink, opts Options) (Outcome, error) {
	p := &parser{
		opts:    opts,
		sink:    sink,
		running: make(map[testKey]*runningTest),
		maxLine: opts.maxLine(),
	}

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Results: p.results}, err
		}

		line, oversized, err := readLine(br, p.maxLine)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Outcome{Results: p.results}, fmt.Errorf("reading test events: %w", err)
		}
		if oversized {
			slog.Warn("Skipping oversized test event", "limit", p.maxLine)
			continue
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var event TestEvent
		if err := json.Unmarshal(line, &event); err != nil {
			sink.OnMessage(string(line))
			continue
		}
		p.handle(event)
	}

	aborted := p.flushUnfinished()
	return Outcome{Results: p.results, Aborted: aborted}, nil
}

// FeedAll parses several streams concurrently into the same sink, which must
// be safe for concurrent use. Results from different streams interleave in
// arrival order.
func FeedAll(ctx context.Context, readers []io.Reader, sink Sink, opts Options) (Outcome, error) {
	g, ctx := errgroup.WithContext(ctx)

	var results atomic.Int64
	var aborted atomic.Bool
	for _, r := range readers {
		g.Go(func() error {
			out, err := Feed(ctx, r, sink, opts)
			results.Add(int64(out.Results))
			if out.Aborted {
				aborted.Store(true)
			}
			return err
		})
	}

	err := g.Wait()
	return Outcome{Results: int(results.Load()), Aborted: aborted.Load()}, err
}

func (p *parser) handle(event TestEvent) {
	if event.Test == "" {
		p.handlePackage(event)
		return
	}

	key := testKey{pkg: event.Package, test: event.Test}

	switch event.Action {
	case ActionRun:
		p.start(key, event.Time)
	case ActionOutput:
		if line, ok := cleanOutput(event.Output); ok {
			rt := p.start(key, event.Time)
			rt.output = append(rt.output, line)
		}
	case ActionPass, ActionFail, ActionSkip:
		p.finish(key, event)
	}
}

func (p *parser) handlePackage(event TestEvent) {
	switch event.Action {
	case ActionOutput:
		if line := strings.TrimRight(event.Output, "\r\n"); line != "" {
			p.sink.OnMessage(line)
		}
	case ActionFail:
		slog.Debug("Package failed", "package", event.Package, "elapsed", event.Elapsed)
	}
}

// start returns the state of a running test, creating it on first sight.
func (p *parser) start(key testKey, t time.Time) *runningTest {
	if rt, ok := p.running[key]; ok {
		return rt
	}
	rt := &runningTest{start: t}
	p.running[key] = rt
	p.order = append(p.order, key)
	return rt
}

func (p *parser) finish(key testKey, event TestEvent) {
	rt := p.start(key, event.Time)
	delete(p.running, key)

	elapsed := time.Duration(event.Elapsed * float64(time.Second))
	end := event.Time
	start := rt.start
	if elapsed > 0 && !end.IsZero() {
		start = end.Add(-elapsed)
	}

	r := p.newResult(key, rt, start, end, elapsed)
	switch event.Action {
	case ActionPass:
		r.Outcome = models.OutcomePassed
	case ActionFail:
		r.Outcome = models.OutcomeFailed
		r.ErrorMessage, r.ErrorStackTrace = splitFailure(rt.output)
	case ActionSkip:
		r.Outcome = models.OutcomeSkipped
	}
	p.emit(r)
}

// flushUnfinished reports tests that never finished and returns whether
// there were any.
func (p *parser) flushUnfinished() bool {
	aborted := false
	for _, key := range p.order {
		rt, ok := p.running[key]
		if !ok {
			continue
		}
		delete(p.running, key)
		aborted = true

		r := p.newResult(key, rt, rt.start, rt.start, 0)
		r.Outcome = models.OutcomeNone
		r.ErrorMessage = "test did not complete"
		p.emit(r)
	}
	p.order = nil
	return aborted
}

func (p *parser) newResult(key testKey, rt *runningTest, start, end time.Time, elapsed time.Duration) *models.TestResult {
	fullName := key.test
	if key.pkg != "" {
		fullName = key.pkg + "." + key.test
	}
	return &models.TestResult{
		FullName:    fullName,
		DisplayName: key.test,
		Source:      p.opts.source(key.pkg),
		StartTime:   start,
		EndTime:     end,
		Duration:    elapsed,
		Messages:    rt.output,
	}
}

func (p *parser) emit(r *models.TestResult) {
	p.results++
	p.sink.OnResult(r)
}
