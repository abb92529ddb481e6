package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dreamware/kvsync/internal/config"
	"github.com/dreamware/kvsync/internal/httpapi"
	"github.com/dreamware/kvsync/internal/identity"
	"github.com/dreamware/kvsync/internal/readiness"
	"github.com/dreamware/kvsync/internal/service"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/storage/httpsqladapter"
	"github.com/dreamware/kvsync/internal/storage/memoryadapter"
	"github.com/dreamware/kvsync/internal/storage/postgresadapter"
	"github.com/dreamware/kvsync/internal/storage/redisadapter"
	"github.com/dreamware/kvsync/internal/storage/sqliteadapter"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kvsync HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("error closing store")
		}
	}()

	svc := service.New(store, cfg.Limits)
	resolver := identity.Resolver{DefaultTenantID: cfg.DefaultTenantID, DefaultNamespace: cfg.DefaultNamespace}
	prober := readiness.New(func(ctx context.Context) storage.Health {
		return svc.Health(ctx)
	}, cfg.ReadinessInterval, cfg.ReadinessStaleAge)
	prober.Start(context.Background())
	defer prober.Stop()

	api := httpapi.New(svc, resolver, prober, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("backend", string(cfg.Backend)).Msg("kvsync server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openStore constructs the storage.Store named by cfg.Backend. The DSN
// is interpreted differently per backend: a file path for sqlite, a
// connection string for postgres, a URL for httpsql, a host:port for
// redis; memory ignores it entirely.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memoryadapter.New(), nil
	case config.BackendSQLite:
		return sqliteadapter.Open(ctx, cfg.DSN)
	case config.BackendPostgres:
		return postgresadapter.Open(ctx, cfg.DSN)
	case config.BackendHTTPSQL:
		return httpsqladapter.Open(ctx, cfg.DSN)
	case config.BackendRedis:
		return redisadapter.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
