// Package server exposes the tokenizer sidecar's JSON HTTP API:
// tokenization, query processing, document indexing, result
// enhancement, and health.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thaisearch/thaitok/internal/batch"
	"github.com/thaisearch/thaitok/internal/config"
	"github.com/thaisearch/thaitok/internal/enhance"
	"github.com/thaisearch/thaitok/internal/meili"
	"github.com/thaisearch/thaitok/internal/query"
	"github.com/thaisearch/thaitok/internal/telemetry"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

// Deps are the wired pipeline components the server dispatches to.
type Deps struct {
	Config    *config.Config
	Segmenter *tokenizer.Segmenter
	Query     *query.Processor
	Batch     *batch.Engine
	Enhancer  *enhance.Enhancer
	Engine    *meili.Client
	Backend   *tokenizer.HTTPBackend
	Recorder  *telemetry.Recorder
	Logger    *slog.Logger
}

// Server is the sidecar HTTP front end.
type Server struct {
	deps Deps
	http *http.Server
}

// New wires the routes and timeouts.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/tokenize", s.handleTokenize)
	mux.HandleFunc("POST /api/v1/tokenize/query", s.handleTokenizeQuery)
	mux.HandleFunc("POST /api/v1/documents", s.handleDocuments)
	mux.HandleFunc("POST /api/v1/search/enhance", s.handleEnhance)
	mux.HandleFunc("GET /health", s.handleHealth)

	svc := deps.Config.Service
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", svc.Host, svc.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  svc.ReadTimeout,
		WriteTimeout: svc.WriteTimeout,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.deps.Logger.Info("http api listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// withLogging logs each request with latency.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", float64(time.Since(start).Microseconds())/1000.0)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
