package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"checkin-backend/config"
	"checkin-backend/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres || cfg.Database.URL == "" {
				return errors.New("migrate needs the postgres driver and database.url")
			}

			if err := store.Migrate(cfg.Database.URL, args[0]); err != nil {
				return err
			}
			slog.Info("migrations applied", "direction", args[0])
			return nil
		},
	}
}
