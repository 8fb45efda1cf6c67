// Package server exposes the reporting engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
)

// Server serves reports computed from a fresh snapshot on every request.
type Server struct {
	source  importer.Source
	engine  *engine.Engine
	cfg     config.ServerConfig
	log     *slog.Logger
	metrics *Metrics
}

// New creates a Server. A nil logger discards output.
func New(src importer.Source, eng *engine.Engine, cfg config.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{source: src, engine: eng, cfg: cfg, log: log, metrics: NewMetrics()}
}

// Routes returns the HTTP handler with the full middleware stack.
func (s *Server) Routes() http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "no-referrer",
	})

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.metrics.Middleware)
	r.Use(secureMiddleware.Handler)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.Limit(s.cfg.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
				})))
		}
		r.Get("/reports", s.handleAll)
		r.Get("/reports/{kind}", s.handleReport)
		r.Get("/diagnostics", s.handleDiagnostics)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	kind, err := engine.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		problem(w, http.StatusBadRequest, "Unknown Report", err.Error())
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req.Kind = kind

	snap, ok := s.load(w, r, kind)
	if !ok {
		return
	}
	rep, err := s.engine.Run(r.Context(), snap, req)
	if err != nil {
		s.metrics.failed(kind)
		respondError(w, err)
		return
	}
	s.metrics.observe(rep)
	writeJSON(w, http.StatusOK, rep)
}

// batchKind labels metrics for GET /reports, which runs every kind at once.
const batchKind engine.Kind = "all"

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	base, err := parseRequest(r)
	if err != nil {
		problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	snap, ok := s.load(w, r, batchKind)
	if !ok {
		return
	}
	reps, err := s.engine.RunAll(r.Context(), snap, engine.AllRequests(base))
	if err != nil {
		s.metrics.failed(batchKind)
		respondError(w, err)
		return
	}
	for _, rep := range reps {
		s.metrics.observe(rep)
	}
	writeJSON(w, http.StatusOK, reps)
}

// handleDiagnostics returns every diagnostic of a trial-balance run as CSV.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req.Kind = engine.KindTrialBalance
	snap, ok := s.load(w, r, req.Kind)
	if !ok {
		return
	}
	rep, err := s.engine.Run(r.Context(), snap, req)
	if err != nil {
		s.metrics.failed(req.Kind)
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := diag.WriteCSV(w, rep.Diagnostics); err != nil {
		s.log.Error("writing diagnostics", "error", err)
	}
}

// load reads the snapshot for one request; a failure counts against kind.
func (s *Server) load(w http.ResponseWriter, r *http.Request, kind engine.Kind) (model.Snapshot, bool) {
	snap, err := s.source.Load(r.Context())
	if err != nil {
		s.metrics.failed(kind)
		s.log.Error("loading snapshot", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, err)
		return model.Snapshot{}, false
	}
	return snap, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// parseRequest reads start_date, end_date, as_of and parent_account.
func parseRequest(r *http.Request) (engine.Request, error) {
	q := r.URL.Query()
	var req engine.Request
	var err error
	if req.Start, err = parseDate(q.Get("start_date")); err != nil {
		return req, fmt.Errorf("start_date: %w", err)
	}
	if req.End, err = parseDate(q.Get("end_date")); err != nil {
		return req, fmt.Errorf("end_date: %w", err)
	}
	if req.AsOf, err = parseDate(q.Get("as_of")); err != nil {
		return req, fmt.Errorf("as_of: %w", err)
	}
	req.ParentAccount = q.Get("parent_account")
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
