package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply event ledger migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		defer l.Sync() // nolint:errcheck

		db, err := postgres.Open(cmd.Context(), &cfg.DB, l)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		if err := db.RunMigrations(cmd.Context()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		l.Sugar().Infow("Migrations applied", zap.String("database", "event_ledger"))
		return nil
	},
}
