// kconfig-server runs the line-delimited JSON configuration server
// described in spec.md section 6 over standard input/standard output.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/parser"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/kerr"
	"github.com/openfroyo/kconfig/pkg/server"
)

var Version = "dev"

var (
	kconfigRoot    string
	inputConfig    string
	renamesPath    string
	protoVersion   int
	defaultsPolicy string
	verbosity      string
	metricsListen  string
	tracerKind     string
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

	cmd := newServerCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("kconfig-server exited with an error")
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

func newServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kconfig-server",
		Short:         "Serve a Kconfig tree over a line-delimited JSON protocol on stdin/stdout",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&kconfigRoot, "kconfig", "Kconfig", "path to the root Kconfig file")
	cmd.Flags().StringVar(&inputConfig, "config", "", "path to a prior configuration file to load at startup")
	cmd.Flags().StringVar(&renamesPath, "renames", "", "path to a rename-list file")
	cmd.Flags().IntVar(&protoVersion, "protocol-version", 3, "protocol version to announce (1, 2, or 3)")
	cmd.Flags().StringVar(&defaultsPolicy, "defaults-policy", "sdkconfig", "sdkconfig, kconfig, or interactive")
	cmd.Flags().StringVar(&verbosity, "verbosity", "default", "quiet, default, or verbose")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address to serve Prometheus metrics on, e.g. :9091 (disabled if empty)")
	cmd.Flags().StringVar(&tracerKind, "trace-exporter", "none", "stdout or none")
	return cmd
}

func run(ctx context.Context) error {
	rep := report.NewBuilder(report.ParseVerbosity(verbosity))
	table := kconfig.NewTable(rep)
	p := parser.NewParser(table, rep, nil)
	if err := p.ParseFile(kconfigRoot); err != nil {
		return kerr.New(kerr.ClassSyntax, "parser", fmt.Sprintf("parsing %s", kconfigRoot), err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		return kerr.New(kerr.ClassSemantic, "server", "validating reverse dependencies", err)
	}

	var renames *loadwrite.RenameMap
	if renamesPath != "" {
		f, err := os.Open(renamesPath)
		if err != nil {
			return kerr.New(kerr.ClassIO, "server", "opening rename file", err)
		}
		renames, err = loadwrite.ParseRenameFile(f)
		f.Close()
		if err != nil {
			return kerr.New(kerr.ClassSemantic, "server", "parsing rename file", err)
		}
	}

	policy := loadwrite.ParseDefaultsPolicy(defaultsPolicy)
	if inputConfig != "" {
		f, err := os.Open(inputConfig)
		if err != nil {
			return kerr.New(kerr.ClassIO, "server", "opening prior configuration", err)
		}
		err = loadwrite.Load(f, table, renames, kconfig.OriginPrimaryConfig, rep)
		f.Close()
		if err != nil {
			return kerr.New(kerr.ClassSyntax, "server", "loading prior configuration", err)
		}
		loadwrite.ApplyDefaultsPolicy(table, policy, rep)
	}

	metrics := server.NewMetrics(metricsListen != "", "kconfig_server")
	if metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		httpSrv := &http.Server{Addr: metricsListen, Handler: mux}
		go func() {
			log.Info().Str("addr", metricsListen).Msg("serving metrics")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		go func() {
			<-ctx.Done()
			_ = httpSrv.Close()
		}()
	}

	tracer, shutdownTracer, err := server.NewTracer(ctx, tracerKind, Version)
	if err != nil {
		return kerr.New(kerr.ClassInternal, "server", "initializing tracer", err)
	}
	defer shutdownTracer(context.Background())

	session := server.NewSession(table, renames, rep, policy)
	srv := server.New(session, os.Stdin, os.Stdout, server.Options{
		ProtocolVersion: protoVersion,
		Logger:          log.Logger,
		Metrics:         metrics,
		Tracer:          tracer,
	})
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return kerr.New(kerr.ClassProtocol, "server", "session ended with an error", err)
	}
	return nil
}
