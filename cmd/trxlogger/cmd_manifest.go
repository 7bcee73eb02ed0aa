package main

import (
	"fmt"
	"os"

	"github.com/spboyer/trxlogger/internal/metadata"
	"github.com/spf13/cobra"
)

func newManifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Work with test manifests",
		Long: `Test manifests describe the tests in a test binary: descriptions,
categories and properties. They are stored next to the binary as
<binary>.testmeta.yaml or <binary>.testmeta.json. Subcommands:
  validate  Check manifests against the manifest schema`,
	}
	cmd.AddCommand(newManifestValidateCommand())
	return cmd
}

func newManifestValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Validate test manifests",
		Args:  cobra.MinimumNArgs(1),
		RunE:  manifestValidateE,
	}
}

func manifestValidateE(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	invalid := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}

		errs := metadata.ValidateManifestBytes(data)
		if len(errs) == 0 {
			fmt.Fprintf(w, "✓ %s\n", path) //nolint:errcheck
			continue
		}

		invalid++
		fmt.Fprintf(w, "✗ %s\n", path) //nolint:errcheck
		for _, e := range errs {
			fmt.Fprintf(w, "    %s\n", e) //nolint:errcheck
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d manifest(s) invalid", invalid, len(args))
	}
	return nil
}
