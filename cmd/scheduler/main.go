package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/loan-tracker/internal/cache"
	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/database"
	"github.com/segyhp/loan-tracker/internal/observability"
	"github.com/segyhp/loan-tracker/internal/service"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single sweep or reminder run.
const jobTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Server.Env, cfg.Logging.Format, cfg.Logging.Level)
	logger.Info("starting loan scheduler", "timezone", cfg.Scheduler.Timezone)

	if cfg.Database.Driver == config.DriverMemory {
		logger.Error("scheduler needs a shared database; DATABASE_DRIVER=memory is not supported")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := database.OpenStore(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithLocation(cfg.Location()),
	}
	// Sweeps change statuses, so the API's cached dashboard has to be dropped too.
	if cfg.Redis.Enabled() {
		redisClient := cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()
		opts = append(opts, service.WithCache(cache.NewMetricsCache(redisClient, cfg.GetCacheTTL())))
	}

	loanService := service.NewLoanService(store, cfg.LoanSettings(), opts...)

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, loanService, logger); err != nil {
		logger.Error("scheduling jobs", "error", err)
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	logger.Info("scheduler started",
		"status_cron", cfg.Scheduler.StatusSweepCron,
		"reminder_cron", cfg.Scheduler.ReminderCron,
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, svc *service.LoanService, logger *slog.Logger) error {
	// Status sweep: the passage of time moves loans to pending, overdue and defaulted.
	if _, err := c.AddFunc(cfg.Scheduler.StatusSweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, err := svc.RefreshAllStatuses(ctx); err != nil {
			logger.Error("status sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	notifier := service.LogNotifier{Logger: logger}
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		sent, err := svc.SendReminders(ctx, notifier, cfg.Scheduler.ReminderDays)
		if err != nil {
			logger.Error("payment reminders failed", "error", err)
			return
		}
		logger.Info("payment reminders sent", "count", sent)
	}); err != nil {
		return err
	}

	return nil
}
