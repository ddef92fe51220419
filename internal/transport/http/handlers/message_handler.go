package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/metrics"
	"github.com/vedran77/messagely/internal/service"
	"github.com/vedran77/messagely/internal/transport/http/middleware"
	"github.com/vedran77/messagely/pkg/validator"
)

type MessageHandler struct {
	messages *service.MessageStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageStore, m *metrics.Metrics, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, metrics: m, logger: logger}
}

// Send stores a message from the caller. The sender always comes from the
// token, never from the body.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	from, err := access.RequireAuthenticated(middleware.GetCaller(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, "send message", err)
		return
	}

	var input service.SendMessageInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateMessage(input.ToUsername, input.Body); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messages.Send(r.Context(), from, input.ToUsername, input.Body)
	if err != nil {
		writeServiceError(w, r, h.logger, "send message", err)
		return
	}

	h.metrics.RecordMessageSent()
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// Get returns a message to its sender or recipient only.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(w, r)
	if !ok {
		return
	}

	msg, err := h.messages.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get message", err)
		return
	}

	if err := access.RequireMessageParty(middleware.GetCaller(r.Context()), msg); err != nil {
		writeServiceError(w, r, h.logger, "get message", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(w, r)
	if !ok {
		return
	}

	reader := middleware.GetCaller(r.Context()).Username()
	readAt, err := h.messages.MarkRead(r.Context(), id, reader)
	if err != nil {
		writeServiceError(w, r, h.logger, "mark message read", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": struct {
			ID     ulid.ULID `json:"id"`
			ReadAt time.Time `json:"read_at"`
		}{id, readAt},
	})
}

func messageID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return ulid.ULID{}, false
	}
	return id, true
}
