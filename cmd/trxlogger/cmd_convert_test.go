package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/spboyer/trxlogger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingEvents = `{"Time":"2025-06-15T12:00:00.1Z","Action":"run","Package":"example.com/suite","Test":"TestAdd"}
{"Time":"2025-06-15T12:00:00.1Z","Action":"output","Package":"example.com/suite","Test":"TestAdd","Output":"=== RUN   TestAdd\n"}
{"Time":"2025-06-15T12:00:00.3Z","Action":"pass","Package":"example.com/suite","Test":"TestAdd","Elapsed":0.2}
{"Time":"2025-06-15T12:00:00.3Z","Action":"run","Package":"example.com/suite","Test":"TestIgnored"}
{"Time":"2025-06-15T12:00:00.3Z","Action":"skip","Package":"example.com/suite","Test":"TestIgnored","Elapsed":0}
{"Time":"2025-06-15T12:00:00.4Z","Action":"pass","Package":"example.com/suite","Elapsed":0.4}
`

const failingEvents = `{"Time":"2025-06-15T12:00:00.1Z","Action":"run","Package":"example.com/other","Test":"TestDivide"}
{"Time":"2025-06-15T12:00:00.2Z","Action":"output","Package":"example.com/other","Test":"TestDivide","Output":"    divide_test.go:21: expected 2, got 3\n"}
{"Time":"2025-06-15T12:00:00.2Z","Action":"fail","Package":"example.com/other","Test":"TestDivide","Elapsed":0.1}
`

// runRoot executes the root command in a fresh working directory.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runRootWithInput(t, "", args...)
}

func runRootWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func readReport(t *testing.T, path string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func TestConvertCommand_Stdin(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := runRootWithInput(t, passingEvents, "convert", "-o", "results", "--file-name", "run.trx")
	require.NoError(t, err)

	assert.Contains(t, out, "Results file: "+filepath.Join("results", "run.trx"))
	assert.Contains(t, out, "Passed        1")
	assert.Contains(t, out, "(1 ignored test(s) left out)")
	assert.Contains(t, out, "All tests passed")

	root := readReport(t, filepath.Join(dir, "results", "run.trx"))
	results := root.FindElements("./Results/UnitTestResult")
	require.Len(t, results, 1)
	assert.Equal(t, "TestAdd", results[0].SelectAttrValue("testName", ""))
	assert.Equal(t, "Passed", results[0].SelectAttrValue("outcome", ""))
	assert.Equal(t, "00:00:00.2000000", results[0].SelectAttrValue("duration", ""))
}

func TestConvertCommand_KeepSkipped(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := runRootWithInput(t, passingEvents, "convert", "--file-name", "run.trx", "--ignore-skipped=false")
	require.NoError(t, err)

	root := readReport(t, filepath.Join(dir, "TestResults", "run.trx"))
	counters := root.FindElement("./ResultSummary/Counters")
	require.NotNil(t, counters)
	assert.Equal(t, "2", counters.SelectAttrValue("total", ""))
	assert.Equal(t, "1", counters.SelectAttrValue("notExecuted", ""))
}

func TestConvertCommand_FilesWithFailures(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	passing := writeFile(t, dir, "suite.json", passingEvents)
	failing := writeFile(t, dir, "other.json", failingEvents)

	out, err := runRoot(t, "convert", "--file-name", "run.trx", "--archive", passing, failing)

	var testFailureErr *TestFailureError
	require.True(t, errors.As(err, &testFailureErr), "expected TestFailureError, got %v", err)
	assert.Equal(t, "1 of 2 test(s) failed", testFailureErr.Message)
	assert.Equal(t, ExitTestFailed, exitCode(err))

	assert.Contains(t, out, "Failed tests:")
	assert.Contains(t, out, "example.com/other.TestDivide  divide_test.go:21: expected 2, got 3")

	report := filepath.Join(dir, "TestResults", "run.trx")
	assert.FileExists(t, report)
	assert.FileExists(t, report+".gz")

	root := readReport(t, report)
	assert.Len(t, root.FindElements("./Results/UnitTestResult"), 2)
	info := root.FindElement("./Results/UnitTestResult[@testName='TestDivide']/Output/ErrorInfo/Message")
	require.NotNil(t, info)
	assert.Equal(t, "divide_test.go:21: expected 2, got 3", info.Text())
}

func TestConvertCommand_Metadata(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "suite.test.testmeta.yaml", `binary: suite.test
types:
  - name: example.com/suite
    methods:
      - name: TestAdd
        description: Adds two numbers
        categories: [math]
`)

	_, err := runRootWithInput(t, passingEvents, "convert", "--file-name", "run.trx",
		"--package", "example.com/suite="+filepath.Join(dir, "suite.test"))
	require.NoError(t, err)

	root := readReport(t, filepath.Join(dir, "TestResults", "run.trx"))
	unitTest := root.FindElement("./TestDefinitions/UnitTest")
	require.NotNil(t, unitTest)
	assert.Equal(t, filepath.Join(dir, "suite.test"), unitTest.SelectAttrValue("storage", ""))
	assert.Equal(t, "Adds two numbers", unitTest.FindElement("./Description").Text())
	assert.Equal(t, "math", unitTest.FindElement("./TestCategory/TestCategoryItem").Text())
}

func TestConvertCommand_JSONManifest(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "suite.test.testmeta.json", `{
  "binary": "suite.test",
  "types": [
    {
      "name": "example.com/suite",
      "methods": [
        {"name": "TestAdd", "description": "Adds from json", "properties": [{"key": "Owner", "value": "alice"}]}
      ]
    }
  ]
}`)

	_, err := runRootWithInput(t, passingEvents, "convert", "--file-name", "run.trx",
		"--package", "example.com/suite="+filepath.Join(dir, "suite.test"))
	require.NoError(t, err)

	root := readReport(t, filepath.Join(dir, "TestResults", "run.trx"))
	unitTest := root.FindElement("./TestDefinitions/UnitTest")
	require.NotNil(t, unitTest)
	assert.Equal(t, "Adds from json", unitTest.FindElement("./Description").Text())
	assert.Equal(t, "alice", unitTest.FindElement("./Properties/Property/Value").Text())
}

func TestConvertCommand_ConfiguredSuffix(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".trxlogger.yaml", "metadata:\n  suffix: .meta.yaml\n")
	writeFile(t, dir, "suite.test.meta.yaml", `types:
  - name: example.com/suite
    methods:
      - name: TestAdd
        description: From custom suffix
`)

	_, err := runRootWithInput(t, passingEvents, "convert", "--file-name", "run.trx",
		"--package", "example.com/suite="+filepath.Join(dir, "suite.test"))
	require.NoError(t, err)

	root := readReport(t, filepath.Join(dir, "TestResults", "run.trx"))
	assert.Equal(t, "From custom suffix", root.FindElement("./TestDefinitions/UnitTest/Description").Text())
}

func TestConvertCommand_ProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".trxlogger.yaml", `
output:
  dir: from-config
  file_name: configured.trx
`)

	_, err := runRootWithInput(t, passingEvents, "convert")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-config", "configured.trx"))

	// Flags win over the config file.
	_, err = runRootWithInput(t, passingEvents, "convert", "--file-name", "flag.trx")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-config", "flag.trx"))
}

func TestConvertCommand_AbortedRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	events := `{"Action":"run","Package":"p","Test":"TestHangs"}
{"Action":"output","Package":"p","Test":"TestHangs","Output":"panic: test timed out after 10m0s\n"}
`
	_, err := runRootWithInput(t, events, "convert", "--file-name", "run.trx")
	require.NoError(t, err)

	root := readReport(t, filepath.Join(dir, "TestResults", "run.trx"))
	assert.Equal(t, "Aborted", root.FindElement("./ResultSummary").SelectAttrValue("outcome", ""))
	result := root.FindElement("./Results/UnitTestResult")
	require.NotNil(t, result)
	assert.Equal(t, models.OutcomeNone.TRX(), result.SelectAttrValue("outcome", ""))
}

func TestConvertCommand_InvalidPackageFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runRootWithInput(t, passingEvents, "convert", "--package", "no-binary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --package")
}

func TestConvertCommand_PublishNeedsContainer(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runRootWithInput(t, passingEvents, "convert", "--publish-url", "https://acct.blob.core.windows.net")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container")
}

func TestConvertCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := runRoot(t, "convert", filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "日本", padRight("日本", 4))
	assert.Equal(t, "日 ", padRight("日", 3))
	assert.Equal(t, "toolong", padRight("toolong", 3))
}
