package main

import (
	"github.com/spf13/cobra"

	"github.com/m04kA/SMC-PaymentService/internal/infra/migrations"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Close()

			db, err := openDB(cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := migrations.NewMigrator(db, log)
			if err != nil {
				return err
			}
			return migrator.Up(cmd.Context())
		},
	}
}
