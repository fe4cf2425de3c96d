package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateCount int

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Insert synthetic products into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		count := generateCount
		if !cmd.Flags().Changed("count") {
			count = cfg.Generate.Count
		}

		store, db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := store.Init(ctx); err != nil {
			return err
		}

		res, err := store.Generate(ctx, count)
		if err != nil {
			return err
		}

		log.Info("generate finished",
			zap.String("run_id", res.RunID),
			zap.Int("inserted", res.Inserted),
			zap.Int("failed", res.Failed),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d of %d products (run %s)\n", res.Inserted, res.Requested, res.RunID)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "number of products to insert (default CATALOG_GENERATE_COUNT)")
	rootCmd.AddCommand(generateCmd)
}
