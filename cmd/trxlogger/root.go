package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trxlogger",
		Short: "trxlogger - write Go test results as TRX reports",
		Long: `trxlogger converts the event stream of "go test -json" into a Visual Studio
TeamTest (TRX) results file, the format consumed by Azure DevOps and other
.NET-centric CI systems.

Test descriptions, categories and properties are read from optional test
manifests stored next to each test binary.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newConvertCommand())
	cmd.AddCommand(newManifestCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trxlogger %s\n", version) //nolint:errcheck
		},
	}
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
