// Package cli holds the commands of the planos-api binary.
package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/credfolha/planos-backoffice/internal/config"
	"github.com/credfolha/planos-backoffice/internal/httpapi"
	"github.com/credfolha/planos-backoffice/internal/logging"
	"github.com/credfolha/planos-backoffice/internal/pgdb"
	"github.com/credfolha/planos-backoffice/internal/planos"
	"github.com/credfolha/planos-backoffice/internal/treatment"
)

// ServeCmd returns the command that runs the backoffice HTTP API.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the backoffice HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Debug:  cfg.Debug,
				File:   cfg.LogFile,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := pgdb.Open(ctx, cfg.DSN(), pgdb.PoolConfig{
				MaxOpen:     cfg.DBMaxOpen,
				MaxIdle:     cfg.DBMaxIdle,
				MaxLifetime: cfg.DBConnLifetime(),
			}, logging.Component(log, "pgdb"))
			if err != nil {
				return err
			}
			defer db.Close()

			counter := planos.NewCounter(
				planos.NewCountCache(cfg.CountCacheTTL()),
				cfg.CountBudget(),
				logging.Component(log, "count"),
			)
			planoSvc := planos.NewService(
				planos.NewPageFetcher(),
				counter,
				logging.Component(log, "planos"),
				cfg.DryRun,
			)
			tratSvc := treatment.NewService(logging.Component(log, "tratamento"), cfg.DryRun)

			server := httpapi.NewServer(httpapi.Options{
				Sessions: func(ctx context.Context, principal string) (httpapi.Session, error) {
					return db.AcquireSession(ctx, principal)
				},
				Planos:           planoSvc,
				Tratamento:       tratSvc,
				Log:              logging.Component(log, "http"),
				DefaultPrincipal: cfg.DefaultPrincipal,
				Debug:            cfg.Debug,
			})

			httpServer := &http.Server{
				Addr:              cfg.HTTPAddress,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("address", cfg.HTTPAddress).Info("backoffice API listening")
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}
