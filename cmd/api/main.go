package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/TetyanaPavlyuk/library-api-service/api/routes"
	"github.com/TetyanaPavlyuk/library-api-service/internal/books"
	"github.com/TetyanaPavlyuk/library-api-service/internal/borrowings"
	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/internal/payments"
	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth/session"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/config"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/metrics"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/migrate"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/redis"
	pkgstripe "github.com/TetyanaPavlyuk/library-api-service/pkg/stripe"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/telegram"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(newSender(cfg, logg), logg, cfg.Eventing.NotifyTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	libraryMetrics := metrics.NewLibraryMetrics(registry)

	revocations, err := session.NewDenylist(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create token denylist", err)
		os.Exit(1)
	}

	bookService, err := books.NewService(books.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create book service", err)
		os.Exit(1)
	}

	borrowingService, err := borrowings.NewService(borrowings.ServiceParams{
		Repo:              borrowings.NewRepository(dbClient.DB()),
		Inventory:         books.NewInventory(),
		Users:             users.NewRepository(dbClient.DB()),
		Notifier:          dispatcher,
		TransactionRunner: dbClient,
		Metrics:           libraryMetrics,
		FineMultiplier:    cfg.Library.FineMultiplier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create borrowing service", err)
		os.Exit(1)
	}

	processor, err := payments.NewStripeProcessor(stripeClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment processor", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:              payments.NewRepository(dbClient.DB()),
		Borrowings:        borrowingService,
		Processor:         processor,
		Notifier:          dispatcher,
		TransactionRunner: dbClient,
		Metrics:           libraryMetrics,
		PublicBaseURL:     cfg.Library.PublicBaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			revocations,
			bookService,
			borrowingService,
			paymentService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	dispatcher.Wait()
	errs = multierr.Append(errs, redisClient.Close())
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(ctx, "api shutdown finished with errors", errs)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

// newSender delivers to Telegram when a bot is configured and to the log otherwise.
func newSender(cfg *config.Config, logg *logger.Logger) notifications.Sender {
	if cfg.Telegram.BotToken == "" {
		logg.Warn(context.Background(), "telegram not configured, notifications go to the log")
		return notifications.NewLogSender(logg)
	}
	client, err := telegram.NewClient(context.Background(), cfg.Telegram, logg)
	if err != nil {
		logg.Error(context.Background(), "telegram unavailable, notifications go to the log", err)
		return notifications.NewLogSender(logg)
	}
	return client
}
