package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TetyanaPavlyuk/library-api-service/internal/borrowings"
	"github.com/TetyanaPavlyuk/library-api-service/internal/cron"
	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/config"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/instance"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/metrics"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/migrate"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/redis"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/telegram"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	metricsAddr := flag.String("metrics-addr", "", "address for the Prometheus endpoint, disabled when empty")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	var sender notifications.Sender = notifications.NewLogSender(logg)
	if cfg.Telegram.BotToken != "" {
		client, err := telegram.NewClient(context.Background(), cfg.Telegram, logg)
		if err != nil {
			logg.Error(context.Background(), "telegram unavailable, overdue reports go to the log", err)
		} else {
			sender = client
		}
	}
	dispatcher, err := notifications.NewDispatcher(sender, logg, cfg.Eventing.NotifyTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	overdueJob, err := cron.NewOverdueJob(cron.OverdueJobParams{
		Logger:     logg,
		Borrowings: borrowings.NewRepository(dbClient.DB()),
		Users:      users.NewRepository(dbClient.DB()),
		Sender:     dispatcher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create overdue job", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCronJobMetrics(registry)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(overdueJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		return
	}

	if *metricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer metricsServer.Close()
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
