package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/service"
	"github.com/vedran77/messagely/internal/transport/http/middleware"
)

type UserHandler struct {
	users    *service.UserDirectory
	messages *service.MessageStore
	logger   *slog.Logger
}

func NewUserHandler(users *service.UserDirectory, messages *service.MessageStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, messages: messages, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ListFrom returns the messages a user has sent. Only that user may ask.
func (h *UserHandler) ListFrom(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := access.RequireSelf(middleware.GetCaller(r.Context()), username); err != nil {
		writeServiceError(w, r, h.logger, "list sent messages", err)
		return
	}

	msgs, err := h.messages.ListFrom(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, h.logger, "list sent messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// ListTo returns the messages a user has received. Only that user may ask.
func (h *UserHandler) ListTo(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := access.RequireSelf(middleware.GetCaller(r.Context()), username); err != nil {
		writeServiceError(w, r, h.logger, "list received messages", err)
		return
	}

	msgs, err := h.messages.ListTo(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, h.logger, "list received messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}
