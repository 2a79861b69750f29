package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/datasteward/steward/internal/infra/auth"
)

func newTokenCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "token <actor>",
		Short: "Issue an API bearer token",
		Long:  "Signs a JWT for the actor with JWT_SECRET; the actor is recorded in the audit trail of every save made with it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTExpiration, cfg.Security.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "steward", "Role claim")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-key <actor> <secret>",
		Short: "Hash an API key for API_KEYS",
		Long:  "Prints an actor=hash entry; clients then send the key as \"actor:secret\" in the X-API-Key header.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashKey(args[1], cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
