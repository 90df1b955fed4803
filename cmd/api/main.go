package main

import (
	"context"
	"net/http"
	"os"

	"github.com/agrilogix/crateflow-backend/api/routes"
	"github.com/agrilogix/crateflow-backend/internal/auth"
	"github.com/agrilogix/crateflow-backend/internal/dashboard"
	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/internal/planner"
	"github.com/agrilogix/crateflow-backend/internal/refdata"
	"github.com/agrilogix/crateflow-backend/internal/reports"
	"github.com/agrilogix/crateflow-backend/internal/sites"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/agrilogix/crateflow-backend/pkg/metrics"
	"github.com/agrilogix/crateflow-backend/pkg/migrate"
	"github.com/agrilogix/crateflow-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis only backs login throttling; the API stays up without it.
	var redisClient *redis.Client
	redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Warn(context.Background(), "redis unavailable, login rate limiting disabled")
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	gdb := dbClient.DB()

	loadsRepo := loads.NewRepository(gdb)
	invRepo := inventory.NewRepository(gdb)

	invService := inventory.NewService(invRepo, dbClient, logg)
	loadsService := loads.NewService(loadsRepo, dbClient, invService, cfg.Dispatch, logg)
	plannerService := planner.NewService(planner.NewRepository(gdb), loadsRepo, dbClient, cfg.Promotion, logg)
	authService := auth.NewService(auth.NewRepository(gdb), cfg.JWT, cfg.Password, logg)
	sitesService := sites.NewService(sites.NewRepository(gdb))
	refdataService := refdata.NewService(refdata.NewRepository(gdb))
	dashboardService := dashboard.NewService(invRepo, loadsRepo)
	reportsService := reports.NewService(gdb)

	handler := routes.New(
		routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Metrics:     metrics.NewHTTPMetrics(),
			RateLimiter: redisClient,
		},
		routes.Services{
			Auth:      authService,
			Loads:     loadsService,
			Planner:   plannerService,
			Inventory: invService,
			Sites:     sitesService,
			Refdata:   refdataService,
			Dashboard: dashboardService,
			Reports:   reportsService,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
