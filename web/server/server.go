// Package server exposes the microscopes over HTTP.
//
// Routes:
//
//	GET  /api/health                       liveness probe
//	GET  /api/tissue                       tissue density map as an image
//	POST /api/capture                      capture of the SWC request body
//	POST /api/inspect                      what the ray through one pixel hits
//	GET  /api/morphologies                 morphologies found in the served directory
//	GET  /api/morphologies/{id}/capture    capture of a served morphology
//
// Errors are JSON objects {"error": "..."}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxImageSize = 4096     // largest accepted width or height
	maxBodyBytes = 32 << 20 // largest accepted SWC body
)

// Config configures a Server
type Config struct {
	Addr          string      // listen address, e.g. ":8080"
	MorphologyDir string      // directory served by /api/morphologies, empty for none
	Workers       int         // render workers per request, 0 for one per CPU
	Logger        *log.Logger // nil discards log output
}

// Server handles web requests for the microscopes
type Server struct {
	config Config
	logger *log.Logger
}

// New creates a server
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{config: config, logger: logger}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/tissue", s.handleTissue)
		r.Post("/capture", s.handleCapture)
		r.Post("/inspect", s.handleInspect)
		r.Get("/morphologies", s.handleMorphologies)
		r.Get("/morphologies/{id}/capture", s.handleMorphologyCapture)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and returns ctx.Err()
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting web server on %s", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("Web server stopped")
		return ctx.Err()
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and writes it as JSON
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(r).Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var (
	errInvalidParam = errors.New("invalid parameter")
	errNotFound     = errors.New("not found")
	errEmptyBody    = errors.New("morphology has no nodes")
)
