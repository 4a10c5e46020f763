// Package server implements the interactive configuration server
// described in spec.md section 6: a long-running process that exposes a
// *kconfig.Table to a UI process over newline-delimited JSON on standard
// input and standard output.
//
// # Architecture
//
//  1. protocol - the wire types (InitialMessage, Request, Response) and
//     their line-delimited JSON codec
//  2. Session - applies one Request to a *kconfig.Table and computes the
//     changed-fields-only Response
//  3. Server - owns the request loop, logging, tracing, and metrics
//     around a Session
//
// # Usage
//
//	table, renames, rep := buildTable()
//	session := server.NewSession(table, renames, rep, loadwrite.PolicyKconfig)
//	srv := server.New(session, os.Stdin, os.Stdout, server.Options{
//	    ProtocolVersion: 3,
//	    Logger:          log.Logger,
//	    Metrics:         server.NewMetrics(true, "kconfig_server"),
//	})
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("server exited")
//	}
package server
