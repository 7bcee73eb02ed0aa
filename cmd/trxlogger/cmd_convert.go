package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/trxlogger/internal/gotest"
	"github.com/spboyer/trxlogger/internal/logger"
	"github.com/spboyer/trxlogger/internal/metadata"
	"github.com/spboyer/trxlogger/internal/models"
	"github.com/spboyer/trxlogger/internal/projectconfig"
	"github.com/spboyer/trxlogger/internal/publish"
	"github.com/spboyer/trxlogger/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	convertOutputDir   string
	convertFileName    string
	convertMetadataDir string
	ignoreSkipped      bool
	archiveReport      bool
	publishURL         string
	publishContainer   string
	packageBinaries    []string
)

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [events.json...]",
		Short: "Convert go test -json output into a TRX report",
		Long: `Convert reads the output of "go test -json" and writes a TRX report.

Events are read from the given files, or from standard input when no files
are given:

  go test -json ./... | trxlogger convert -o TestResults

Settings not given as flags are taken from .trxlogger.yaml, searched for
from the current directory upwards.`,
		RunE: convertCommandE,
	}

	cmd.Flags().StringVarP(&convertOutputDir, "output-dir", "o", "", "Directory the report is written to (default: TestResults/)")
	cmd.Flags().StringVar(&convertFileName, "file-name", "", "Report file name (default: {user}_{host} {timestamp}.trx)")
	cmd.Flags().StringVar(&convertMetadataDir, "metadata-dir", "", "Directory holding test manifests")
	cmd.Flags().BoolVar(&ignoreSkipped, "ignore-skipped", true, "Leave skipped tests without output out of the report")
	cmd.Flags().BoolVar(&archiveReport, "archive", false, "Also write a gzip copy of the report")
	cmd.Flags().StringVar(&publishURL, "publish-url", "", "Azure Blob storage account URL to upload the report to")
	cmd.Flags().StringVar(&publishContainer, "publish-container", "", "Blob container to upload the report to")
	cmd.Flags().StringArrayVar(&packageBinaries, "package", nil, "Test binary of a package as import/path=binary (can be repeated)")

	return cmd
}

// convertSettings merges the project config with the flags given on the
// command line. Flags win.
func convertSettings(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir = convertOutputDir
	}
	if flags.Changed("file-name") {
		cfg.Output.FileName = convertFileName
	}
	if flags.Changed("metadata-dir") {
		cfg.Metadata.Dir = convertMetadataDir
	}
	if flags.Changed("ignore-skipped") {
		cfg.Results.IgnoreSkipped = &ignoreSkipped
	}
	if flags.Changed("archive") {
		cfg.Output.Archive = &archiveReport
	}
	if flags.Changed("publish-url") {
		cfg.Publish.AccountURL = publishURL
	}
	if flags.Changed("publish-container") {
		cfg.Publish.Container = publishContainer
	}
	for _, pb := range packageBinaries {
		pkg, bin, ok := strings.Cut(pb, "=")
		if !ok || pkg == "" || bin == "" {
			return nil, fmt.Errorf("invalid --package %q: expected import/path=binary", pb)
		}
		if cfg.Packages == nil {
			cfg.Packages = map[string]string{}
		}
		cfg.Packages[pkg] = bin
	}
	return cfg, nil
}

func convertCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := convertSettings(cmd)
	if err != nil {
		return err
	}

	readers, closeAll, err := openInputs(cmd, args)
	if err != nil {
		return err
	}
	defer closeAll()

	loggerCfg := logger.Config{
		OutputDir:     cfg.Output.Dir,
		FileName:      cfg.Output.FileName,
		IgnoreSkipped: cfg.Results.IgnoreSkipped == nil || *cfg.Results.IgnoreSkipped,
		Archive:       cfg.Output.Archive != nil && *cfg.Output.Archive,
	}
	if cfg.Publish.Enabled() {
		pub, err := publish.NewBlobPublisher(cfg.Publish.AccountURL, cfg.Publish.Container)
		if err != nil {
			return err
		}
		loggerCfg.Publisher = pub.WithPrefix(cfg.Publish.Prefix)
	} else if cfg.Publish.AccountURL != "" || cfg.Publish.Container != "" {
		return errors.New("publishing needs both an account URL and a container")
	}

	provider := metadata.NewCache(metadata.NewManifestLoader(cfg.Metadata.Dir, cfg.Metadata.Suffixes()...))
	l := logger.New(loggerCfg, provider)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stopSpinner := func() {}
	if isTerminal(cmd.ErrOrStderr()) {
		stopSpinner = spinner.Start(cmd.ErrOrStderr(), func() string {
			return fmt.Sprintf("Reading test events (%d results)", l.Count())
		})
	}

	summary := models.RunSummary{StartTime: time.Now()}
	out, err := gotest.FeedAll(ctx, readers, l, gotest.Options{Sources: cfg.Packages})
	stopSpinner()
	switch {
	case errors.Is(err, context.Canceled):
		slog.Warn("Run canceled, writing partial report")
		summary.Canceled = true
	case err != nil:
		return err
	}
	summary.Aborted = out.Aborted
	summary.FinishTime = time.Now()

	path, err := l.OnRunComplete(context.WithoutCancel(ctx), summary)
	if err != nil {
		return err
	}

	counters := models.CountResults(l.Records())
	printSummary(cmd.OutOrStdout(), path, counters, l.Ignored(), failedTests(l.Records()), isTerminal(cmd.OutOrStdout()))

	if counters.Failed > 0 {
		return &TestFailureError{
			Message: fmt.Sprintf("%d of %d test(s) failed", counters.Failed, counters.Total),
		}
	}
	return nil
}

// openInputs opens every file in args, or falls back to stdin. Reading from
// an interactive terminal is refused since nothing would ever arrive.
func openInputs(cmd *cobra.Command, args []string) ([]io.Reader, func(), error) {
	if len(args) == 0 {
		in := cmd.InOrStdin()
		if isTerminal(in) {
			return nil, nil, errors.New("no input: pipe \"go test -json\" output into trxlogger or pass event files")
		}
		return []io.Reader{in}, func() {}, nil
	}

	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close() //nolint:errcheck
		}
	}

	readers := make([]io.Reader, 0, len(args))
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening test events: %w", err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func failedTests(records []*models.TestResult) []*models.TestResult {
	var failed []*models.TestResult
	for _, r := range records {
		if r.Outcome == models.OutcomeFailed || r.Outcome == models.OutcomeNone {
			failed = append(failed, r)
		}
	}
	return failed
}

func printSummary(w io.Writer, path string, c models.Counters, ignored int, failed []*models.TestResult, tty bool) {
	passMark, failMark := "PASS", "FAIL"
	if tty {
		passMark, failMark = "✓", "✗"
	}

	fmt.Fprintf(w, "\nResults file: %s\n\n", path) //nolint:errcheck

	rows := []struct {
		label string
		value int
	}{
		{"Passed", c.Passed},
		{"Failed", c.Failed},
		{"Not executed", c.NotExecuted},
		{"Total", c.Total},
	}
	labelWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, runewidth.StringWidth(row.label))
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s  %d\n", padRight(row.label, labelWidth), row.value) //nolint:errcheck
	}
	if ignored > 0 {
		fmt.Fprintf(w, "  (%d ignored test(s) left out)\n", ignored) //nolint:errcheck
	}

	if len(failed) == 0 {
		if c.Total > 0 {
			fmt.Fprintf(w, "\n%s All tests passed\n", passMark) //nolint:errcheck
		}
		return
	}

	nameWidth := 0
	for _, r := range failed {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.FullName))
	}
	fmt.Fprintf(w, "\nFailed tests:\n") //nolint:errcheck
	for _, r := range failed {
		fmt.Fprintf(w, "  %s %s  %s\n", failMark, padRight(r.FullName, nameWidth), firstLine(r.ErrorMessage)) //nolint:errcheck
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
