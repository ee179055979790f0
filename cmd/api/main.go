package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/imperionite/fm-core/internal/cache"
	"github.com/imperionite/fm-core/internal/catalog"
	"github.com/imperionite/fm-core/internal/config"
	apihttp "github.com/imperionite/fm-core/internal/http"
	"github.com/imperionite/fm-core/internal/notify"
	"github.com/imperionite/fm-core/internal/repository"
	"github.com/imperionite/fm-core/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	logger.Info("commerce API starting")

	repo, err := connectWithRetry(&cfg.DB, logger)
	if err != nil {
		logger.Fatal("could not connect to postgres", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("migrations applied")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	store := cache.NewRedisStore(redisClient)

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, store, logger)

	mailer := notify.NewMailgunMailer(
		cfg.MailgunAPIBase, cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunFrom,
		cfg.NotifyTimeout)

	var queue notify.Queue
	switch cfg.NotifyTransport {
	case config.TransportKafka:
		kq := notify.NewKafkaQueue(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.NotifyTimeout, logger)
		defer kq.Close()

		consumer := notify.NewKafkaConsumer(
			cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaConsumerGroup,
			mailer, cfg.NotifyTimeout, logger)
		defer consumer.Close()

		consumerCtx, stopConsumer := context.WithCancel(context.Background())
		defer stopConsumer()
		go consumer.Run(consumerCtx)

		queue = kq
		logger.Info("notification transport: kafka", zap.String("topic", cfg.KafkaTopic))
	default:
		pool := notify.NewWorkerPool(mailer, logger, cfg.NotifyWorkers, cfg.NotifyBuffer, cfg.NotifyTimeout)
		pool.Start()
		defer pool.Stop()

		queue = pool
		logger.Info("notification transport: worker pool", zap.Int("workers", cfg.NotifyWorkers))
	}

	cartService := service.NewCartService(repo, repo, catalogClient, store, logger)
	orderService := service.NewOrderService(repo, repo, repo, store, queue, logger)

	cartHandler := apihttp.NewCartHandler(cartService, cfg.RequestTimeout, logger)
	ordersHandler := apihttp.NewOrdersHandler(orderService, cfg.RequestTimeout, logger)
	router := apihttp.NewRouter(cartHandler, ordersHandler, cfg.RequestTimeout, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// connectWithRetry waits for postgres to come up, which in compose setups
// routinely lags behind the app container.
func connectWithRetry(cred *repository.Credentials, logger *zap.Logger) (*repository.Repository, error) {
	const maxRetries = 10
	const retryDelay = 3 * time.Second

	var repo *repository.Repository
	var err error
	for i := 0; i < maxRetries; i++ {
		repo, err = repository.NewRepository(cred)
		if err == nil {
			return repo, nil
		}
		logger.Warn("postgres not ready, retrying",
			zap.Int("attempt", i+1),
			zap.Duration("delay", retryDelay),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, err
}
