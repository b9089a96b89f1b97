package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger returns the server logger tagged with the request id. It
// also serves as the core.Logger of the microscopes a request creates.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return s.logger.With("request", id)
	}
	return s.logger
}

// logRequests logs one line per request once the handler returns
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.requestLogger(r).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}
