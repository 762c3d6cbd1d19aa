package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifium/delivery-worker/internal/config"
	"github.com/notifium/delivery-worker/internal/dispatch"
	"github.com/notifium/delivery-worker/internal/handler"
	infraredis "github.com/notifium/delivery-worker/internal/infra/redis"
	"github.com/notifium/delivery-worker/internal/observability"
	"github.com/notifium/delivery-worker/internal/preferences"
	"github.com/notifium/delivery-worker/internal/provider"
	"github.com/notifium/delivery-worker/internal/queue"
	"github.com/notifium/delivery-worker/internal/statussink"
	"github.com/notifium/delivery-worker/internal/transport"
	"github.com/notifium/delivery-worker/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	oracle, err := preferences.NewHTTPOracle(cfg.SubscriptionAPIURL, cfg.HTTPTimeout, logger)
	if err != nil {
		logger.Fatal("preference oracle initialization failed", zap.Error(err))
	}

	reporter, err := statussink.NewHTTPReporter(cfg.NotificationAPIURL, cfg.HTTPTimeout)
	if err != nil {
		logger.Fatal("status sink initialization failed", zap.Error(err))
	}

	faults := provider.NewRandomFaults(time.Now().UnixNano())
	registry := provider.NewRegistry(
		provider.NewEmailProvider(faults, logger),
		provider.NewSMSProvider(faults, logger),
		provider.NewPushProvider(faults, logger),
	)

	validator, err := dispatch.NewValidator(oracle, logger)
	if err != nil {
		logger.Fatal("validator initialization failed", zap.Error(err))
	}

	dispatcher, err := dispatch.NewDispatcher(validator, registry, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}

	controller := dispatch.NewController(0, logger)
	consumer := queue.NewRabbitMQConsumer(broker, cfg.MaxConcurrentCalls, logger)

	deliveryWorker, err := worker.NewWorker(
		consumer,
		dispatcher,
		controller,
		rateLimiter,
		reporter,
		cfg.MaxConcurrentCalls,
		cfg.MaxProcessingTime,
		logger,
	)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	deliveryWorker.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())
	handler.RegisterHealthRoutes(app, broker, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("delivery worker started",
			zap.Int("concurrency", cfg.MaxConcurrentCalls),
			zap.Strings("channels", registry.Channels()),
		)
		return deliveryWorker.Start(groupCtx)
	})

	g.Go(func() error {
		logger.Info("ops server started", zap.Int("port", cfg.OpsPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.OpsPort)); err != nil {
			return fmt.Errorf("ops server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		if err := deliveryWorker.Stop(); err != nil {
			logger.Warn("consumer close failed", zap.Error(err))
		}
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("worker exited with error", zap.Error(err))
	}

	logger.Info("delivery worker stopped")
}
