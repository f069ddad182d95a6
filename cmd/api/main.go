package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"grocery-storefront/internal/repository"
	"grocery-storefront/internal/server"
	"grocery-storefront/internal/ws"
	"grocery-storefront/pkg/config"
	"grocery-storefront/pkg/database"
	"grocery-storefront/pkg/gs1"
	"grocery-storefront/pkg/logger"
	"grocery-storefront/pkg/metrics"

	"go.uber.org/zap"
)

const serviceName = "grocery-storefront"

func main() {
	// 1. Load config
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		log.Fatalf("logger: %v", err)
	}
	lg := logger.GetLogger()
	defer lg.Sync()
	lg.Info("starting", cfg.LogConfig()...)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Wire the app
	app := server.NewApp(server.Deps{
		Config:    cfg,
		DB:        db,
		Hub:       wsHub,
		Metrics:   metrics.NewHTTPMetrics(serviceName, cfg.Metrics.Prefix),
		Barcode:   gs1.NewClient(cfg.GS1.APIKey, cfg.GS1.APIURL, cfg.GS1.Timeout),
		AccessLog: true,
	})

	// 5. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			lg.Panic("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		lg.Fatal("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	lg.Info("server exited")
}
