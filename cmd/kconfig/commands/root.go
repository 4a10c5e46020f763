// Package commands implements the kconfig configurator CLI described in
// spec.md section 6: parse a Kconfig tree, load a prior configuration
// plus environment overrides, and write back the evaluated result.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kerr"
)

var (
	kconfigRoot  string
	inputConfig  string
	outputConfig string
	envFile      string
	envVars      []string
	headerPath   string
	headerPrefix string
	minimal      bool
	renamesPath  string
	renamesYAML  bool
	defaultsPol  string
	verbosity    string
)

// Execute runs the root command and returns the process exit code,
// classifying the returned error through pkg/kerr per spec.md section 6:
// 0 success, 1 user error, 2 internal error.
func Execute(ctx context.Context, version, commit, buildDate string) (int, error) {
	root := newRootCommand(version, commit, buildDate)
	root.SilenceUsage = true
	root.SilenceErrors = true
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), err)
	}
	return kerr.ExitCode(err), err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	root := &cobra.Command{
		Use:     "kconfig",
		Short:   "Kconfig configurator",
		Long:    "kconfig parses a Kconfig source tree, applies a prior configuration and environment overrides, and writes back the evaluated configuration and optional generated headers.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	root.PersistentFlags().StringVar(&kconfigRoot, "kconfig", "Kconfig", "path to the root Kconfig file")
	root.PersistentFlags().StringVar(&renamesPath, "renames", "", "path to a rename-list file")
	root.PersistentFlags().BoolVar(&renamesYAML, "renames-yaml", false, "parse --renames as YAML instead of the plain-text form")
	root.PersistentFlags().StringVar(&defaultsPol, "defaults-policy", "sdkconfig", "how to resolve a loaded default disagreeing with the Kconfig source: sdkconfig, kconfig, interactive")
	root.PersistentFlags().StringVar(&verbosity, "verbosity", "default", "report verbosity: quiet, default, verbose")
	root.PersistentFlags().StringSliceVar(&envVars, "env", nil, "NAME=VALUE macro binding, repeatable")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "JSON object of macro name to value")

	root.AddCommand(newConfigureCommand())
	root.AddCommand(newSnapshotCommand())
	root.AddCommand(newHistoryCommand())

	return root
}
