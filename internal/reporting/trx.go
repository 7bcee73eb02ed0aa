package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/spboyer/trxlogger/internal/identity"
	"github.com/spboyer/trxlogger/internal/metadata"
	"github.com/spboyer/trxlogger/internal/models"
)

// TRX schema constants
const (
	Namespace = "http://microsoft.com/schemas/VisualStudio/TeamTest/2010"

	adapterTypeName = "Microsoft.VisualStudio.TestTools.TestTypes.Unit.UnitTestAdapter, Microsoft.VisualStudio.QualityTools.Tips.UnitTest.Adapter, Version=12.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a"
	unitTestTypeGUID = "13CDC9D9-DDB5-4fa4-A97D-D965CCFC6D4B"
	testListName     = "All Loaded Results"
)

// Assembler builds TRX documents from accumulated results.
type Assembler struct {
	provider   metadata.Provider
	now        func() time.Time
	runStarted time.Time
	identity   RunIdentity
	newID      func() uuid.UUID
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock sets the clock used for the finish time and the run name.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithRunStarted sets the time the run started. Defaults to the time the
// assembler was created.
func WithRunStarted(t time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.runStarted = t
	}
}

// WithIdentity overrides the user and host written to the report.
func WithIdentity(id RunIdentity) AssemblerOption {
	return func(a *Assembler) {
		a.identity = id
	}
}

// NewAssembler returns an assembler that recovers test metadata through
// provider. A nil provider gives every test fallback metadata.
func NewAssembler(provider metadata.Provider, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		provider: provider,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runStarted.IsZero() {
		a.runStarted = a.now()
	}
	if a.identity == (RunIdentity{}) {
		a.identity = LocalIdentity()
	}
	return a
}

// assembly holds the state of building one document. Execution ids are
// scoped to it.
type assembly struct {
	*Assembler

	records    []*models.TestResult
	testIDs    []string
	metadata   []*models.TestMetadata
	executions *identity.ExecutionTable
	runID      string
	summary    models.RunSummary
}

// Assemble builds the TRX document for records and summary. Every section
// lists the records in the given order. The returned document still carries
// a namespace declaration on each section; run Normalize before writing.
func (a *Assembler) Assemble(records []*models.TestResult, summary models.RunSummary) (*etree.Document, error) {
	asm := &assembly{
		Assembler:  a,
		records:    records,
		testIDs:    make([]string, len(records)),
		metadata:   make([]*models.TestMetadata, len(records)),
		executions: identity.NewExecutionTable(),
		runID:      a.newID().String(),
		summary:    summary,
	}

	for i, r := range records {
		id, err := identity.TestID(r.FullName)
		if err != nil {
			return nil, fmt.Errorf("deriving test id for result %d (%q): %w", i, r.DisplayName, err)
		}
		asm.testIDs[i] = id.String()
		asm.metadata[i] = metadata.Resolve(a.provider, r)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("TestRun")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("id", asm.runID)
	root.CreateAttr("name", fmt.Sprintf("%s@%s %s", a.identity.User, a.identity.Host, a.now().UTC().Format("2006-01-02 15:04:05")))
	root.CreateAttr("runUser", a.identity.RunUser())

	root.AddChild(asm.results())
	root.AddChild(asm.resultSummary())
	root.AddChild(asm.testDefinitions())
	root.AddChild(asm.testEntries())
	root.AddChild(asm.testLists())
	root.AddChild(asm.times())

	return doc, nil
}

// section starts a detached section subtree. It declares the namespace so the
// subtree is complete on its own.
func section(tag string) *etree.Element {
	el := etree.NewElement(tag)
	el.CreateAttr("xmlns", Namespace)
	return el
}

func (asm *assembly) executionID(i int) string {
	return asm.executions.IDFor(asm.records[i]).String()
}

func (asm *assembly) results() *etree.Element {
	results := section("Results")
	for i, r := range asm.records {
		execID := asm.executionID(i)

		el := results.CreateElement("UnitTestResult")
		el.CreateAttr("computerName", asm.identity.Host)
		el.CreateAttr("duration", formatDuration(r.Duration))
		el.CreateAttr("endTime", formatTime(r.EndTime))
		el.CreateAttr("executionId", execID)
		el.CreateAttr("outcome", r.Outcome.TRX())
		el.CreateAttr("relativeResultsDirectory", execID)
		el.CreateAttr("startTime", formatTime(r.StartTime))
		el.CreateAttr("testId", asm.testIDs[i])
		el.CreateAttr("testListId", asm.runID)
		el.CreateAttr("testName", r.DisplayName)
		el.CreateAttr("testType", unitTestTypeGUID)

		output := el.CreateElement("Output")
		output.CreateElement("StdOut").SetText(strings.Join(r.Messages, "\n"))
		if r.HasError() {
			info := output.CreateElement("ErrorInfo")
			info.CreateElement("Message").SetText(r.ErrorMessage)
			info.CreateElement("StackTrace").SetText(r.ErrorStackTrace)
		}
	}
	return results
}

func (asm *assembly) resultSummary() *etree.Element {
	summary := section("ResultSummary")
	summary.CreateAttr("outcome", asm.summary.Outcome())

	c := models.CountResults(asm.records)
	counters := summary.CreateElement("Counters")
	for _, kv := range []struct {
		name  string
		value int
	}{
		{"aborted", 0},
		{"completed", 0},
		{"disconnected", 0},
		{"error", 0},
		{"executed", c.Executed},
		{"failed", c.Failed},
		{"inconclusive", c.Inconclusive},
		{"inProgress", 0},
		{"notExecuted", c.NotExecuted},
		{"notRunnable", 0},
		{"passed", c.Passed},
		{"passedButRunAborted", 0},
		{"pending", 0},
		{"timeout", 0},
		{"total", c.Total},
		{"warning", 0},
	} {
		counters.CreateAttr(kv.name, strconv.Itoa(kv.value))
	}
	return summary
}

func (asm *assembly) testDefinitions() *etree.Element {
	definitions := section("TestDefinitions")
	for i, r := range asm.records {
		md := asm.metadata[i]

		el := definitions.CreateElement("UnitTest")
		el.CreateAttr("id", asm.testIDs[i])
		el.CreateAttr("name", r.DisplayName)
		el.CreateAttr("storage", r.Source)

		el.CreateElement("Description").SetText(md.Description)
		el.CreateElement("Execution").CreateAttr("id", asm.executionID(i))

		properties := el.CreateElement("Properties")
		for _, p := range md.Properties {
			property := properties.CreateElement("Property")
			property.CreateElement("Key").SetText(p.Key)
			property.CreateElement("Value").SetText(p.Value)
		}

		categories := el.CreateElement("TestCategory")
		for _, c := range md.Categories {
			categories.CreateElement("TestCategoryItem").SetText(c)
		}

		method := el.CreateElement("TestMethod")
		method.CreateAttr("adapterTypeName", adapterTypeName)
		method.CreateAttr("className", md.ClassName)
		method.CreateAttr("codeBase", r.Source)
		method.CreateAttr("name", r.DisplayName)
	}
	return definitions
}

func (asm *assembly) testEntries() *etree.Element {
	entries := section("TestEntries")
	for i := range asm.records {
		el := entries.CreateElement("TestEntry")
		el.CreateAttr("executionId", asm.executionID(i))
		el.CreateAttr("testId", asm.testIDs[i])
		el.CreateAttr("testListId", asm.runID)
	}
	return entries
}

func (asm *assembly) testLists() *etree.Element {
	lists := section("TestLists")
	list := lists.CreateElement("TestList")
	list.CreateAttr("id", asm.runID)
	list.CreateAttr("name", testListName)
	return lists
}

func (asm *assembly) times() *etree.Element {
	started := formatTime(asm.runStarted)

	times := section("Times")
	times.CreateAttr("creation", started)
	times.CreateAttr("finish", formatTime(asm.now()))
	times.CreateAttr("queuing", started)
	times.CreateAttr("start", started)
	return times
}
