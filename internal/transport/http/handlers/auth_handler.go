package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/messagely/internal/domain"
	"github.com/vedran77/messagely/internal/metrics"
	"github.com/vedran77/messagely/internal/service"
	"github.com/vedran77/messagely/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateRegister(input.Username, input.Password, input.FirstName, input.LastName, input.Phone); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, "register", err)
		return
	}

	h.metrics.RecordRegistration()
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateLogin(input.Username, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.RecordLogin(metrics.LoginInvalid)
		} else {
			h.metrics.RecordLogin(metrics.LoginError)
		}
		writeServiceError(w, r, h.logger, "login", err)
		return
	}

	h.metrics.RecordLogin(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, resp)
}
