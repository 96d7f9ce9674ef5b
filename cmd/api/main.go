package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/cache"
	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/handler"
	"github.com/Dan9191/cashflow-service/internal/integrations/cbr"
	"github.com/Dan9191/cashflow-service/internal/middleware"
	"github.com/Dan9191/cashflow-service/internal/notify"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	repo := repository.NewRepository(db, logger)
	forecastCache := newCache(cfg, logger)
	cbrClient := cbr.NewCBRClient(cfg, logger)
	sender := notify.NewSender(cfg, logger)
	svc := service.NewService(repo, forecastCache, cbrClient, sender, logger, cfg)
	h := handler.NewHandler(svc, repo, logger)

	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(cfg, logger))
	h.RegisterRoutes(apiRouter)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := svc.ReconcileActuals(ctx); err != nil {
			logger.WithError(err).Error("Forecast reconciliation failed")
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule reconciliation: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.AlertCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := svc.SendAlertDigests(ctx); err != nil {
			logger.WithError(err).Error("Alert digest failed")
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule alert digest: %v", err)
	}
	scheduler.Start()

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

// newCache returns a Redis cache when configured and reachable, otherwise an in-memory one
func newCache(cfg *config.Config, logger *logrus.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory forecast cache")
		return cache.NewMemoryCache()
	}

	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory forecast cache")
		redisCache.Close()
		return cache.NewMemoryCache()
	}
	logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	return redisCache
}
