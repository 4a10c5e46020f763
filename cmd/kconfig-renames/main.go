// kconfig-renames validates a rename-list file: it rejects self-renames
// and cyclic rename chains and reports the resolved canonical form of
// every declared old name, per SPEC_FULL.md section 12 item 3.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kerr"
)

var yamlForm bool

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cmd := newRenamesCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(kerr.ExitCode(err))
	}
}

func newRenamesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kconfig-renames <rename-file>",
		Short:         "Validate a rename-list file and print its resolved canonical forms",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenames(cmd, args[0])
		},
	}
	cmd.Flags().BoolVar(&yamlForm, "yaml", false, "parse the rename file as YAML instead of the plain-text form")
	return cmd
}

func runRenames(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return kerr.New(kerr.ClassIO, "renames", "opening rename file", err)
	}
	defer f.Close()

	var rm *loadwrite.RenameMap
	if yamlForm {
		rm, err = loadwrite.ParseRenameFileYAML(f)
	} else {
		rm, err = loadwrite.ParseRenameFile(f)
	}
	if err != nil {
		return kerr.New(kerr.ClassSemantic, "renames", "validating rename file", err)
	}

	for _, old := range rm.OldNames() {
		canonical := rm.Canonical(old)
		inverted := ""
		if rm.Invert(old) {
			inverted = " (inverted)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s%s\n", old, canonical, inverted)
	}
	return nil
}
