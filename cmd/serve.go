package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"checkin-backend/checkin"
	"checkin-backend/config"
	"checkin-backend/handlers"
	"checkin-backend/jobs"
	"checkin-backend/store"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the check-in HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			if migrateFirst && cfg.Database.Driver == config.DriverPostgres {
				if err := store.Migrate(cfg.Database.URL, "up"); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply database migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	issuer := checkin.NewIssuer(db, db, checkin.IssuerConfig{TTL: cfg.Credential.TTL})
	validator := checkin.NewValidator(db, db, checkin.ValidatorConfig{EnforceExpiry: cfg.Credential.EnforceExpiry})

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(
		handlers.RouterConfig{
			JWTSecret:   []byte(cfg.Auth.JWTSecret),
			IsAdmin:     cfg.Auth.IsAdmin,
			CORSOrigins: cfg.Server.CORSOrigins,
			DB:          db,
		},
		handlers.NewEventHandler(db),
		handlers.NewCredentialHandler(issuer, cfg.Server.PublicURL),
		handlers.NewCheckinHandler(validator, db, db),
	)

	if len(cfg.Refresh.EventIDs) > 0 {
		refresher := jobs.NewCredentialRefresher(issuer, cfg.Refresh.EventIDs, cfg.Refresh.Interval)
		jobs.Go(func() { refresher.Start(ctx) })
		defer refresher.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port,
			"credential_ttl", cfg.Credential.TTL, "enforce_expiry", cfg.Credential.EnforceExpiry)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
