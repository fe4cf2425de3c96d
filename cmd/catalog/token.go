package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ProductCatalog/internal/auth"
)

var (
	tokenRole    string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the admin-guarded routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Admin.Enabled() {
			return errors.New("CATALOG_ADMIN_JWT_SECRET is not set")
		}

		tm := auth.NewTokenMaker(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer)
		tok, err := tm.New(tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "role claim")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "ops", "subject claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
