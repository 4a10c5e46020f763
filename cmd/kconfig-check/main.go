// kconfig-check implements the style checker described in spec.md
// section 6: it walks a Kconfig tree, flags style and semantic issues,
// and writes a `.new` sibling wherever it can fix something
// automatically.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/checker"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/kerr"
)

var (
	kconfigRoot string
	renamesPath string
	starlarkSrc []string
	watch       bool
	verbosity   string
)

func main() {
	setupLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received interrupt signal, shutting down")
		cancel()
	}()

	cmd := newCheckCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(kerr.ExitCode(err))
	}
}

func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kconfig-check [Kconfig]",
		Short:         "Check a Kconfig tree for style and semantic issues",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				kconfigRoot = args[0]
			}
			return runCheck(cmd)
		},
	}
	cmd.Flags().StringVar(&kconfigRoot, "kconfig", "Kconfig", "path to the root Kconfig file")
	cmd.Flags().StringVar(&renamesPath, "renames", "", "path to a rename-list file used to fix deprecated references")
	cmd.Flags().StringSliceVar(&starlarkSrc, "rule", nil, "path to a Starlark rule script, repeatable")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run on every source tree change instead of exiting")
	cmd.Flags().StringVar(&verbosity, "verbosity", "default", "quiet, default, or verbose")
	return cmd
}

func runCheck(cmd *cobra.Command) error {
	var renames *loadwrite.RenameMap
	if renamesPath != "" {
		f, err := os.Open(renamesPath)
		if err != nil {
			return kerr.New(kerr.ClassIO, "checker", "opening rename file", err)
		}
		renames, err = loadwrite.ParseRenameFile(f)
		f.Close()
		if err != nil {
			return kerr.New(kerr.ClassSemantic, "checker", "parsing rename file", err)
		}
	}

	var rules []string
	for _, path := range starlarkSrc {
		data, err := os.ReadFile(path)
		if err != nil {
			return kerr.New(kerr.ClassIO, "checker", fmt.Sprintf("reading rule %s", path), err)
		}
		rules = append(rules, string(data))
	}

	c, err := checker.New(checker.Options{
		RootFile:    kconfigRoot,
		Renames:     renames,
		StarlarkSrc: rules,
		Verbosity:   report.ParseVerbosity(verbosity),
	})
	if err != nil {
		return kerr.New(kerr.ClassSemantic, "checker", "compiling rules", err)
	}

	if watch {
		return c.Watch(cmd.Context(), func(res *checker.Result, err error) {
			if err != nil {
				log.Error().Err(err).Msg("check run failed")
				return
			}
			printResult(res)
		})
	}

	res, err := c.Run()
	if err != nil {
		return kerr.New(kerr.ClassSemantic, "checker", "running checks", err)
	}
	printResult(res)
	if res.HasIssues() {
		return kerr.New(kerr.ClassSemantic, "checker", "issues found", nil)
	}
	return nil
}

func printResult(res *checker.Result) {
	for _, d := range res.Diagnostics {
		fmt.Fprintln(os.Stdout, d.String())
	}
	for _, f := range res.Fixes {
		fmt.Fprintf(os.Stdout, "%s:%d: %s\n", f.File, f.Line, f.Message)
	}
	for src, dst := range res.NewFiles {
		fmt.Fprintf(os.Stdout, "wrote %s (fixes for %s)\n", dst, src)
	}
}
