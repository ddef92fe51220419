package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// connectBackoff governs the startup ping only. Queries issued after Connect
// returns are never retried.
var connectBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond)))
}

func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_POOL_FAILED").With("operation", "create connection pool").Wrap(err)
	}

	attempt := 0
	err = retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not reachable yet", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}

	return pool, nil
}
