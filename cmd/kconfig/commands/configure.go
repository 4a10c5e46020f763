package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kerr"
)

func newConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure [prior-config]",
		Short: "Evaluate a Kconfig tree and write back the resolved configuration",
		Long: `configure parses the Kconfig tree given by --kconfig, optionally loads a
prior configuration file (positional argument) and environment overrides,
and writes the evaluated result to --output (or stdout).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				inputConfig = args[0]
			}
			return runConfigure(cmd)
		},
	}

	cmd.Flags().StringVarP(&outputConfig, "output", "o", "", "output configuration path (default: stdout)")
	cmd.Flags().StringVar(&headerPath, "header", "", "path to write a C header of #define's")
	cmd.Flags().StringVar(&headerPrefix, "header-prefix", "CONFIG_", "macro prefix for --header")
	cmd.Flags().BoolVar(&minimal, "minimal", false, "write only symbols that differ from their Kconfig default (savedefconfig form)")

	return cmd
}

func runConfigure(cmd *cobra.Command) error {
	table, rep, renames, err := buildTable()
	if err != nil {
		return err
	}
	if err := loadPriorConfig(table, renames, rep, inputConfig); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputConfig != "" {
		f, err := os.Create(outputConfig)
		if err != nil {
			return kerr.New(kerr.ClassIO, "configurator", fmt.Sprintf("creating %s", outputConfig), err)
		}
		defer f.Close()
		out = f
	}

	if minimal {
		err = loadwrite.WriteMinimal(out, table, renames)
	} else {
		err = loadwrite.Write(out, table, renames)
	}
	if err != nil {
		return kerr.New(kerr.ClassIO, "loadwrite", "writing configuration", err)
	}

	if headerPath != "" {
		hf, err := os.Create(headerPath)
		if err != nil {
			return kerr.New(kerr.ClassIO, "loadwrite", fmt.Sprintf("creating %s", headerPath), err)
		}
		defer hf.Close()
		if err := loadwrite.WriteHeader(hf, table, headerPrefix); err != nil {
			return kerr.New(kerr.ClassIO, "loadwrite", "writing header", err)
		}
	}

	printDiagnostics(rep)
	if rep.HasErrors() {
		return kerr.New(kerr.ClassSemantic, "configurator", "configuration has unresolved errors", nil)
	}
	return nil
}
