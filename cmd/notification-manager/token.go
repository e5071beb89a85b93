package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"synctask-notifications/internal/common/auth"
	"synctask-notifications/internal/common/database"
)

func newTokenCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or revoke callable client tokens",
	}
	cmd.AddCommand(newTokenIssueCommand(root))
	cmd.AddCommand(newTokenRevokeCommand(root))
	return cmd
}

func newTokenIssueCommand(root *rootOptions) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newTokenRevokeCommand(root *rootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "revoke <token>",
		Short: "Add a token to the Redis revocation list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Redis.Address == "" {
				return fmt.Errorf("database.redis.address is required to revoke tokens")
			}

			rdb := database.NewRedis(cfg.Database.Redis)
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := auth.NewRedisRevocationList(rdb.Client).Revoke(ctx, args[0], ttl); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token revoked")
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long the revocation entry is kept")

	return cmd
}
