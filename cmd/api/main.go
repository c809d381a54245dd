package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercatura-tech/stockflow-backend/api/routes"
	branchsvc "github.com/mercatura-tech/stockflow-backend/internal/branches"
	productsvc "github.com/mercatura-tech/stockflow-backend/internal/products"
	stocksvc "github.com/mercatura-tech/stockflow-backend/internal/stock"
	transfersvc "github.com/mercatura-tech/stockflow-backend/internal/transfers"
	"github.com/mercatura-tech/stockflow-backend/pkg/config"
	"github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/logger"
	"github.com/mercatura-tech/stockflow-backend/pkg/metrics"
	"github.com/mercatura-tech/stockflow-backend/pkg/migrate"
	"github.com/mercatura-tech/stockflow-backend/pkg/outbox"
	"github.com/mercatura-tech/stockflow-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	stockService := stocksvc.NewService(dbClient, stocksvc.NewRepository(dbClient.DB()), outboxService, stockMetrics, logg)
	transferService := transfersvc.NewService(dbClient, transfersvc.NewRepository(dbClient.DB()), outboxService, stockMetrics, logg)
	productService := productsvc.NewService(productsvc.NewRepository(dbClient.DB()), logg)
	branchService := branchsvc.NewService(dbClient.DB())

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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Metrics:   stockMetrics,
			Registry:  registry,
			Stock:     stockService,
			Transfers: transferService,
			Products:  productService,
			Branches:  branchService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
