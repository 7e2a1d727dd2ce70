package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/alerts"
	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/config"
)

// The alerts worker runs the upcoming-call and deadline scans on a cron
// schedule and logs the digest. It shares the repository layer with the
// API but runs as its own process.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := cashflow.NewPostgresRepository(db)
	service := alerts.NewService(repo, cfg.Alerts, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Alerts.Schedule, func() {
		if _, err := service.Sweep(ctx); err != nil {
			logger.Error("alert sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid alert schedule", zap.String("schedule", cfg.Alerts.Schedule), zap.Error(err))
	}

	// One sweep at startup so a fresh deployment reports immediately.
	if _, err := service.Sweep(ctx); err != nil {
		logger.Error("alert sweep failed", zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Alerts worker started", zap.String("schedule", cfg.Alerts.Schedule))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	cancel()
	<-scheduler.Stop().Done()
	logger.Info("Alerts worker stopped")
}
