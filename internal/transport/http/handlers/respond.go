package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/messagely/internal/domain"
	"github.com/vedran77/messagely/internal/logging"
	"github.com/vedran77/messagely/pkg/validator"
)

// maxBodyBytes caps request bodies; every payload here is a handful of
// short strings.
const maxBodyBytes = 64 << 10

type errorKind struct {
	target  error
	status  int
	code    string
	message string
}

// errorKinds maps domain error kinds to responses. Messages are fixed so
// nothing from storage or hashing ever reaches a client.
var errorKinds = []errorKind{
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "Invalid request"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid username or password"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Not found"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT", "Already exists"},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Service temporarily unavailable"},
}

func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	logger = logging.FromContext(r.Context(), logger)

	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			if kind.status >= http.StatusInternalServerError {
				logging.LogError(r.Context(), logger, op+" failed", err)
			} else {
				logger.DebugContext(r.Context(), op+" rejected", "error", err)
			}
			writeError(w, kind.status, kind.code, kind.message)
			return
		}
	}

	logging.LogError(r.Context(), logger, op+" failed", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}
