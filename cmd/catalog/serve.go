package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ProductCatalog/internal/auth"
	"ProductCatalog/internal/catalog"
	"ProductCatalog/pkg/kit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		proxies, err := kit.ParseProxies(cfg.HTTP.TrustedProxies)
		if err != nil {
			return err
		}

		store, db, err := openStore(ctx, reg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := store.Init(ctx); err != nil {
			return err
		}

		guard := []func(http.Handler) http.Handler{
			kit.NewIPRateLimiter(cfg.Generate.RateLimit, time.Minute).Middleware,
		}
		if cfg.Admin.Enabled() {
			tm := auth.NewTokenMaker(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer)
			guard = append(guard, auth.RequireRole(tm, auth.RoleAdmin, log))
		} else if !cfg.App.IsDev() {
			log.Warn("generate endpoint is not protected; set CATALOG_ADMIN_JWT_SECRET")
		}

		s := &catalog.Server{
			Store:         store,
			Log:           log,
			GenerateCount: cfg.Generate.Count,
			GenerateGuard: guard,
		}

		h := catalog.NewHandler(s, catalog.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			CORSOrigins:    cfg.HTTP.CORSOrigins,
			TrustedProxies: proxies,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		})

		log.Info("catalog starting",
			zap.String("env", cfg.App.Env),
			zap.String("driver", cfg.DB.Driver),
			zap.String("lock_policy", cfg.DB.LockPolicy),
		)
		return kit.RunHTTPServer(ctx, cfg.App.Addr(), h, log, cfg.HTTP.ShutdownTimeout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
