package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/auth"
	"github.com/vedran77/messagely/internal/config"
	"github.com/vedran77/messagely/internal/database"
	"github.com/vedran77/messagely/internal/metrics"
	"github.com/vedran77/messagely/internal/repository"
	"github.com/vedran77/messagely/internal/repository/memory"
	postgresrepo "github.com/vedran77/messagely/internal/repository/postgres"
	"github.com/vedran77/messagely/internal/service"
	"github.com/vedran77/messagely/internal/transport/http/handlers"
)

type storage struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	ping     handlers.Pinger
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.WarnContext(ctx, "using in-memory storage, data is lost on exit")
		store := memory.NewStore()
		return &storage{users: store.Users(), messages: store.Messages(), close: func() {}}, nil

	case config.StoragePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL(), logger)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "connected to database", "host", cfg.DBHost, "database", cfg.DBName)
		return &storage{
			users:    postgresrepo.NewUserRepo(pool),
			messages: postgresrepo.NewMessageRepo(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	}

	return nil, oops.Code("CONFIG_INVALID").Errorf("unknown storage backend %q", cfg.Storage)
}

// buildHandler assembles services and handlers over an opened storage.
func buildHandler(cfg *config.Config, store *storage, logger *slog.Logger) (http.Handler, error) {
	hasher, err := auth.NewCredentialStore(auth.Algorithm(cfg.HashAlgorithm), cfg.HashCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	// Services
	directory, err := service.NewUserDirectory(store.users, hasher)
	if err != nil {
		return nil, err
	}
	messages, err := service.NewMessageStore(store.messages, store.users)
	if err != nil {
		return nil, err
	}
	authService := service.NewAuthService(directory, tokens)

	m := metrics.New()

	// Handlers
	return handlers.NewRouter(handlers.RouterConfig{
		Auth:        handlers.NewAuthHandler(authService, m, logger),
		Users:       handlers.NewUserHandler(directory, messages, logger),
		Messages:    handlers.NewMessageHandler(messages, m, logger),
		Resolver:    access.NewController(tokens, logger, m),
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Ping:        store.ping,
	}), nil
}
