package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vedran77/messagely/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request with the inbound X-Request-ID, or a fresh UUID,
// and stores a logger carrying it in the context.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := logging.WithLogger(r.Context(), logger.With("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
