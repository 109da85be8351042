package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/loan-tracker/internal/cache"
	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/database"
	"github.com/segyhp/loan-tracker/internal/handler"
	"github.com/segyhp/loan-tracker/internal/observability"
	"github.com/segyhp/loan-tracker/internal/service"
	"github.com/segyhp/loan-tracker/pkg/response"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Server.Env, cfg.Logging.Format, cfg.Logging.Level)

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := database.OpenStore(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("failed to initialize database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithLocation(cfg.Location()),
	}

	// Redis is optional; without it the dashboard is computed on every request.
	var cachePinger handler.Pinger
	if cfg.Redis.Enabled() {
		redisClient := initRedis(cfg)
		defer redisClient.Close()

		metricsCache := cache.NewMetricsCache(redisClient, cfg.GetCacheTTL())
		opts = append(opts, service.WithCache(metricsCache))
		cachePinger = metricsCache
	}

	//Initialize service
	loanService := service.NewLoanService(store, cfg.LoanSettings(), opts...)
	loanHandler := handler.NewLoanHandler(loanService, logger)
	healthHandler := handler.NewHealthHandler(store, cachePinger, cfg.GetHealthTimeout())

	// Setup routes
	router := handler.NewRouter(loanHandler, healthHandler, logger)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.CORSMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr, "driver", cfg.Database.Driver, "cache", cfg.Redis.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	return cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
}
