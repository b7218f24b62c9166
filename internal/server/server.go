// Package server mounts the content pipeline and the demo agents over a
// thin HTTP surface.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/channels"
	"github.com/paceline/paceline/pkg/content"
	"github.com/paceline/paceline/pkg/pacing"
	"github.com/paceline/paceline/pkg/workflow"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	addr     string
	pacer    *pacing.Pacer
	pipeline *workflow.App[content.ContentState]
	agents   map[string]*agents.LLMAgent
	lastRun  *channels.LastValue[content.ContentState]
	httpSrv  *http.Server
}

// New wires the HTTP surface. The pacer is only consulted for the
// advisory snapshot endpoint; pacing itself happens inside the model the
// agents were built with.
func New(
	addr string,
	pacer *pacing.Pacer,
	pipeline *workflow.App[content.ContentState],
	demoAgents map[string]*agents.LLMAgent,
) *Server {
	return &Server{
		addr:     addr,
		pacer:    pacer,
		pipeline: pipeline,
		agents:   demoAgents,
		lastRun:  channels.NewLastValue[content.ContentState](),
	}
}

// Routes builds the router. Split from Start so tests can mount it on
// httptest servers.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealthz)
		r.Get("/pacing", s.handlePacing)
		r.Route("/workflows/content", func(r chi.Router) {
			r.Post("/run", s.handleContentRun)
			r.Get("/last", s.handleContentLast)
		})
		r.Post("/agents/{agent}/generate", s.handleGenerate)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.Routes()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		slog.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "http server shutdown")
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
