package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/config"
	"github.com/jengzang/dwell-backend-go/internal/middleware"
)

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set (DWELL_AUTH_JWT_SECRET)")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := middleware.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "owner", "Token subject.")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default auth.token_ttl).")
	return cmd
}
