package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/alerts"
	"peflow/cashflow-backend/internal/auth"
	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/config"
	"peflow/cashflow-backend/internal/export"
	"peflow/cashflow-backend/internal/fx"
	"peflow/cashflow-backend/internal/imports"
	"peflow/cashflow-backend/internal/pacing"
	"peflow/cashflow-backend/internal/pipeline"
	"peflow/cashflow-backend/internal/portfolio"
	"peflow/cashflow-backend/pkg/cache"
)

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	queryCache := cache.New(cfg.Cache.TTL)
	defer queryCache.Stop()

	// Wiring, bottom up: repositories, services, handlers.
	cashflowRepo := cashflow.NewPostgresRepository(db)
	cashflowService := cashflow.NewService(cashflowRepo, queryCache, logger)

	rates := fx.NewPostgresRates(db)
	converter := fx.NewConverter(rates)

	portfolioService := portfolio.NewService(cashflowRepo, converter, queryCache, logger)
	forecastService := pacing.NewForecastService(cashflowRepo, pacing.NewEngine(), queryCache, logger)

	pipelineRepo := pipeline.NewPostgresRepository(db)
	pipelineService := pipeline.NewService(pipelineRepo, queryCache, logger)

	alertService := alerts.NewService(cashflowRepo, cfg.Alerts, logger)
	importer := imports.NewImporter(cashflowService, logger)

	issuer := auth.NewTokenIssuer(cfg.Security.JWTSecret)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := router.Group("/api/v1")
	if cfg.Security.JWTSecret != "" {
		api.Use(auth.Middleware(issuer))
	}
	{
		cashflow.NewHandler(cashflowService).RegisterRoutes(api)
		pacing.NewHandler(forecastService).RegisterRoutes(api)
		portfolio.NewHandler(portfolioService).RegisterRoutes(api)
		pipeline.NewHandler(pipelineService).RegisterRoutes(api)
		fx.NewHandler(rates).RegisterRoutes(api)
		alerts.NewHandler(alertService).RegisterRoutes(api)
		export.NewHandler(cashflowService, portfolioService).RegisterRoutes(api)
		imports.NewHandler(importer).RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}
