package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leetgroups/groupboard/config"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/postgres"
	"github.com/leetgroups/groupboard/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	var (
		rollback bool
		status   bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list Postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Store.Driver != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.StorePostgres, cfg.Store.Driver)
			}
			log := logger.Setup(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

			ctx := cmd.Context()
			conn, err := connectPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			migrator := postgres.NewMigrator(conn)
			switch {
			case status:
				migrations, err := migrator.Status(ctx)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				for _, m := range migrations {
					state := "pending"
					if m.IsApplied {
						state = "applied " + m.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%03d  %-32s %s\n", m.Version, m.Name, state)
				}
				return nil
			case rollback:
				if err := migrator.Rollback(ctx); err != nil {
					return fmt.Errorf("rollback: %w", err)
				}
				log.Info("rolled back last migration")
				return nil
			default:
				if err := migrator.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Info("migrations applied")
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether they are applied")
	cmd.MarkFlagsMutuallyExclusive("rollback", "status")
	return cmd
}
