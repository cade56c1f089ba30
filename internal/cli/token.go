package cli

import (
	"fmt"
	"time"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/identity"

	"github.com/spf13/cobra"
)

// NewTokenCmd issues a signed bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var ttl string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a signed access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth secret not configured")
			}
			lifetime := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
			if ttl != "" {
				lifetime = config.TTLDuration(ttl, lifetime)
			}
			token, err := identity.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer).Issue(args[0], lifetime)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "token lifetime, e.g. 1h (defaults to auth.token_ttl)")
	return cmd
}
