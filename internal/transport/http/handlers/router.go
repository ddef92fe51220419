package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vedran77/messagely/internal/metrics"
	"github.com/vedran77/messagely/internal/transport/http/middleware"
)

type Pinger func(ctx context.Context) error

type RouterConfig struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Messages    *MessageHandler
	Resolver    middleware.CallerResolver
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
	// Ping checks the storage backend for /health. Nil means always healthy.
	Ping Pinger
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	auth := middleware.RequireAuth

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to messagely"})
	})
	mux.HandleFunc("GET /health", health(cfg.Ping))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.HandleFunc("POST /auth/register", cfg.Auth.Register)
	mux.HandleFunc("POST /auth/login", cfg.Auth.Login)

	// Protected - Users
	mux.Handle("GET /users", auth(http.HandlerFunc(cfg.Users.List)))
	mux.Handle("GET /users/{username}", auth(http.HandlerFunc(cfg.Users.Get)))
	mux.Handle("GET /users/{username}/from", auth(http.HandlerFunc(cfg.Users.ListFrom)))
	mux.Handle("GET /users/{username}/to", auth(http.HandlerFunc(cfg.Users.ListTo)))

	// Protected - Messages
	mux.Handle("POST /messages", auth(http.HandlerFunc(cfg.Messages.Send)))
	mux.Handle("GET /messages/{id}", auth(http.HandlerFunc(cfg.Messages.Get)))
	mux.Handle("POST /messages/{id}/read", auth(http.HandlerFunc(cfg.Messages.MarkRead)))

	var handler http.Handler = mux
	handler = middleware.Logging(cfg.Logger, cfg.Metrics)(handler)
	handler = middleware.Authenticate(cfg.Resolver)(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	handler = middleware.RequestID(cfg.Logger)(handler)
	return handler
}

func health(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
