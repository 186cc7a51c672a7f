package cli

import (
	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/credfolha/planos-backoffice/internal/config"
	"github.com/credfolha/planos-backoffice/internal/logging"
	"github.com/credfolha/planos-backoffice/internal/pgdb"
	"github.com/credfolha/planos-backoffice/internal/treatment"
)

// RepairCmd returns the maintenance command that sweeps items still pending
// under closed treatment batches into PULADO. Closed batches with pending
// items come from manual interventions; the close path itself sweeps inside
// its transaction.
func RepairCmd() *cobra.Command {
	var usuario string

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Sweep pending items under closed treatment batches",
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

			principal := usuario
			if principal == "" {
				principal = cfg.DefaultPrincipal
			}
			if principal == "" {
				return errors.New("no principal: pass --usuario or set DEFAULT_PRINCIPAL")
			}

			ctx := cmd.Context()
			db, err := pgdb.Open(ctx, cfg.DSN(), pgdb.PoolConfig{
				MaxOpen:     cfg.DBMaxOpen,
				MaxIdle:     cfg.DBMaxIdle,
				MaxLifetime: cfg.DBConnLifetime(),
			}, logging.Component(log, "pgdb"))
			if err != nil {
				return err
			}
			defer db.Close()

			sess, err := db.AcquireSession(ctx, principal)
			if err != nil {
				return err
			}
			defer sess.Release()

			svc := treatment.NewService(logging.Component(log, "tratamento"), cfg.DryRun)
			reparados, err := svc.RepararItensFechadosPendentes(ctx, sess)
			if err != nil {
				return err
			}

			log.WithField("itens", reparados).Info("repair finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&usuario, "usuario", "", "user to bind the maintenance session to")
	return cmd
}
