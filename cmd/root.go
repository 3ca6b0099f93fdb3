// Package cmd is the command-line entrypoint: serve, migrate and credential admin.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"checkin-backend/config"
	"checkin-backend/models"
	"checkin-backend/store"
	"checkin-backend/telemetry"
)

var cfgFile string

// Execute builds the command tree and runs it.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "checkin",
		Short:         "Rotating QR credentials and one-time event check-in",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./checkin.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newCredentialCmd())
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)
	return cfg, nil
}

// openStore connects the configured persistence driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		return store.NewMemory(models.Event{ID: 1, Name: "Demo Event"}), nil
	case config.DriverPostgres:
		pg, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
