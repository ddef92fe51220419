package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vedran77/messagely/internal/logging"
)

type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logging writes one access log line per request and feeds the observer.
// It must wrap the ServeMux directly: the mux records the matched pattern on
// the request it is handed, and that is read back as the route label.
func Logging(fallback *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}

			logging.FromContext(r.Context(), fallback).InfoContext(r.Context(), "request",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
			)
			if observer != nil {
				observer.ObserveRequest(r.Method, route, rec.status, elapsed)
			}
		})
	}
}
