package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := store.Init(ctx); err != nil {
			return err
		}
		log.Info("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
