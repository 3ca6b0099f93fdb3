package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"checkin-backend/checkin"
	"checkin-backend/models"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Issue or rotate an event's check-in credential",
	}
	cmd.AddCommand(newCredentialSubCmd("issue", "Print the current credential, issuing one if none is active", false))
	cmd.AddCommand(newCredentialSubCmd("rotate", "Issue a new credential even if one is active", true))
	return cmd
}

func newCredentialSubCmd(use, short string, rotate bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <event-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			issuer := checkin.NewIssuer(db, db, checkin.IssuerConfig{TTL: cfg.Credential.TTL})

			var cred *models.Credential
			if rotate {
				cred, err = issuer.ForceRotate(ctx, eventID)
			} else {
				cred, err = issuer.GetOrIssueCredential(ctx, eventID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "event:   %d\n", cred.EventID)
			fmt.Fprintf(out, "token:   %s\n", cred.Value)
			fmt.Fprintf(out, "url:     %s\n", checkin.CheckinURL(cfg.Server.PublicURL, cred.Value))
			fmt.Fprintf(out, "expires: %s\n", cred.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
