package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/messagely/internal/config"
	"github.com/vedran77/messagely/internal/database"
	"github.com/vedran77/messagely/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.Setup("messagely", version, cfg.LogFormat, cmd.ErrOrStderr())
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if autoMigrate && cfg.Storage == config.StoragePostgres {
				if err := migrateUp(cfg); err != nil {
					logging.LogError(ctx, logger, "auto-migrate failed", err)
					return err
				}
			}

			listener, err := net.Listen("tcp", ":"+cfg.ServerPort)
			if err != nil {
				return oops.Code("SERVER_LISTEN_FAILED").With("port", cfg.ServerPort).Wrap(err)
			}

			return serve(ctx, cfg, listener, logger)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving (postgres only)")

	return cmd
}

// serve runs the API on listener until ctx is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, cfg *config.Config, listener net.Listener, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		_ = listener.Close()
		logging.LogError(ctx, logger, "storage unavailable", err)
		return err
	}
	defer store.close()

	handler, err := buildHandler(cfg, store, logger)
	if err != nil {
		_ = listener.Close()
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "starting server",
			"addr", listener.Addr().String(),
			"storage", cfg.Storage,
			"hash_algorithm", cfg.HashAlgorithm,
			"token_ttl", cfg.TokenTTL.String(),
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	})

	return g.Wait()
}

func migrateUp(cfg *config.Config) error {
	migrator, err := database.NewMigrator(cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	return migrator.Up()
}
