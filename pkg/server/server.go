// Package server implements the line-delimited JSON configuration server
// described in spec.md section 6. It wraps a Session around the request
// loop, logging, tracing, and metrics a long-running process needs.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/openfroyo/kconfig/pkg/server/protocol"
)

// Options configures a Server. There is no ambient/global configuration;
// everything a Server needs arrives through this struct.
type Options struct {
	ProtocolVersion int
	Logger          zerolog.Logger
	Metrics         *Metrics
	Tracer          trace.Tracer
}

// Server reads protocol.Request lines from r and writes protocol.Response
// lines to w, serializing every request through a single Session.
type Server struct {
	session *Session
	dec     *protocol.Decoder
	enc     *protocol.Encoder
	opts    Options
	id      string
}

// New creates a Server bound to session, reading requests from r and
// writing responses (and the one-time initial message) to w.
func New(session *Session, r io.Reader, w io.Writer, opts Options) *Server {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("kconfig-server")
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(false, "")
	}
	return &Server{
		session: session,
		dec:     protocol.NewDecoder(r),
		enc:     protocol.NewEncoder(w),
		opts:    opts,
		id:      uuid.New().String(),
	}
}

// Serve sends the initial message and then loops reading requests and
// writing responses until ctx is canceled or the input stream ends.
func (s *Server) Serve(ctx context.Context) error {
	log := s.opts.Logger.With().Str("session_id", s.id).Logger()
	log.Info().Int("version", s.opts.ProtocolVersion).Msg("session opened")
	s.opts.Metrics.SessionOpened()
	defer s.opts.Metrics.SessionClosed()

	initial := s.session.Initial(s.opts.ProtocolVersion)
	if err := s.enc.Encode(initial); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var req protocol.Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Msg("session closed: input exhausted")
				return nil
			}
			log.Error().Err(err).Msg("malformed request")
			_ = s.enc.Encode(protocol.Response{Error: []string{err.Error()}})
			continue
		}
		if err := req.Validate(); err != nil {
			log.Warn().Err(err).Msg("request failed validation")
			_ = s.enc.Encode(protocol.Response{Error: []string{err.Error()}})
			continue
		}

		start := time.Now()
		resp := s.handleTraced(ctx, req)
		elapsed := time.Since(start).Seconds()

		outcome := "ok"
		if resp.HasError() {
			outcome = "error"
			log.Warn().Strs("errors", resp.Error).Msg("request produced errors")
		}
		s.opts.Metrics.ObserveRequest(outcome, elapsed, len(resp.Values))

		if err := s.enc.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleTraced(ctx context.Context, req protocol.Request) protocol.Response {
	summary := requestSummary{
		version:    req.Version,
		setCount:   len(req.Set),
		hasLoad:    req.Load != nil,
		hasSave:    req.Save != nil,
		resetCount: len(req.Reset),
	}
	_, span := s.opts.Tracer.Start(ctx, "kconfig.server.handle", trace.WithAttributes(spanAttrs(summary)...))
	defer span.End()
	return s.session.Handle(req)
}
