package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

const service = "catalog"

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Product catalog service",
	Long: `catalog serves a read-mostly product catalog over HTTP and manages
its backing store: schema migrations and synthetic data generation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment wins.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		log = kit.NewLogger(service, cfg.App.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openStore opens the pool and builds the store for the configured backend.
// The caller owns the returned *sql.DB.
func openStore(ctx context.Context, reg prometheus.Registerer) (*catalog.SQLStore, *sql.DB, error) {
	policy, err := catalog.ParseAccessPolicy(cfg.DB.LockPolicy)
	if err != nil {
		return nil, nil, err
	}

	db, err := kit.OpenDB(ctx, kit.DBOptions{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.DB.Driver, err)
	}

	var metrics *catalog.StoreMetrics
	if reg != nil {
		metrics = catalog.NewStoreMetrics(reg)
	}

	s := catalog.NewSQLStore(db, catalog.SQLStoreOptions{
		Dialect:         catalog.Dialect(cfg.DB.Driver),
		Policy:          policy,
		QueryTimeout:    cfg.DB.QueryTimeout,
		GenerateTimeout: cfg.DB.GenerateTimeout,
		Metrics:         metrics,
		Log:             log.Named("store"),
	})
	return s, db, nil
}
