// ABOUTME: Stub analysis backend that speaks the same HTTP and SSE protocol as the real service.
// ABOUTME: Serves canned reports after a scripted sequence of progress steps, with optional failure modes.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/sse"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// FailMode selects a scripted failure.
type FailMode string

const (
	FailNone   FailMode = ""
	FailScrape FailMode = "scrape" // the page cannot be fetched
	FailSoft   FailMode = "soft"   // an error-flagged progress record, then success
	FailDrop   FailMode = "drop"   // the stream ends before a report
	FailDecode FailMode = "decode" // a record that is not JSON
)

// ParseFailMode validates a user-supplied failure mode name.
func ParseFailMode(s string) (FailMode, error) {
	switch m := FailMode(strings.ToLower(strings.TrimSpace(s))); m {
	case FailNone, FailScrape, FailSoft, FailDrop, FailDecode:
		return m, nil
	default:
		return "", fmt.Errorf("unknown failure mode %q (want scrape, soft, drop or decode)", s)
	}
}

const (
	rootMessage   = "Accessibility Analyzer API is running."
	scrapeFailure = "Failed to scrape the website or critical content (HTML) is missing."
)

// Config holds the settings for a Server.
type Config struct {
	Addr      string        // listen address (default: "127.0.0.1:8000")
	StepDelay time.Duration // pause between progress records
	Fail      FailMode
	AccessLog bool        // log each request through chi's middleware.Logger
	Logger    *log.Logger // nil discards
}

// Server is the stub backend.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a Server and builds its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{cfg: cfg, logger: logger}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("stub analysis server listening", "addr", s.cfg.Addr, "fail", string(s.cfg.Fail), "step_delay", s.cfg.StepDelay)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	if s.cfg.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analyze-stream", s.handleStream)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Request body must be JSON with a url field.")
		return
	}
	target, err := analysis.ValidateURL(req.URL)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.logger.Info("analyze request", "target", target)
	if s.cfg.Fail == FailScrape {
		writeDetail(w, http.StatusInternalServerError, scrapeFailure)
		return
	}
	if !s.pause(r.Context()) {
		return
	}
	writeJSON(w, http.StatusOK, CannedReport(target))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	target, err := analysis.ValidateURL(r.URL.Query().Get("url"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "A valid url query parameter is required.")
		return
	}

	logger := s.logger.With("target", target)
	logger.Info("stream request")

	sw := sse.NewWriter(w)
	if err := sw.Comment("analysis started"); err != nil {
		return
	}

	for i, st := range steps {
		if i > 0 && !s.pause(r.Context()) {
			logger.Debug("client went away")
			return
		}
		if err := sw.SendJSON(st.record()); err != nil {
			logger.Debug("write failed", "err", err)
			return
		}

		switch {
		case i == 1 && s.cfg.Fail == FailScrape:
			_ = sw.SendJSON(analysis.Record{Type: analysis.RecordError, Message: scrapeFailure, Error: boolPtr(true)})
			logger.Warn("scripted scrape failure")
			return
		case i == 1 && s.cfg.Fail == FailSoft:
			_ = sw.SendJSON(analysis.Record{
				Type:    analysis.RecordProgress,
				Message: "Screenshot capture failed, continuing with HTML only",
				Error:   boolPtr(true),
			})
		case i == 2 && s.cfg.Fail == FailDrop:
			logger.Warn("scripted connection drop")
			return
		case i == 2 && s.cfg.Fail == FailDecode:
			_ = sw.Send(sse.Event{Data: "{not json"})
			return
		}
	}

	if !s.pause(r.Context()) {
		return
	}
	report := CannedReport(target)
	if err := sw.SendJSON(analysis.Record{Type: analysis.RecordReport, Message: "Analysis complete", Data: report}); err != nil {
		logger.Debug("write failed", "err", err)
		return
	}
	logger.Info("stream finished", "scores", len(report.Scores))
}

// pause waits for the step delay; it returns false if ctx ends first.
func (s *Server) pause(ctx context.Context) bool {
	if s.cfg.StepDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.cfg.StepDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func boolPtr(b bool) *bool { return &b }
