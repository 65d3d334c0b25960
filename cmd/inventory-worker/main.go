package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pos-platform/pos/internal/application"
	posMongo "github.com/pos-platform/pos/internal/infrastructure/mongodb"
	"github.com/pos-platform/pos/internal/worker"
	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/idempotency"
	"github.com/pos-platform/pos/pkg/kafka"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
	"github.com/pos-platform/pos/pkg/middleware"
	"github.com/pos-platform/pos/pkg/mongodb"
	"github.com/pos-platform/pos/pkg/outbox"
	"github.com/pos-platform/pos/pkg/resilience"
	"github.com/pos-platform/pos/pkg/tracing"
)

const serviceName = "inventory-worker"

func main() {
	cfg := loadConfig()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting inventory worker", "port", cfg.Port, "consumerGroup", cfg.ConsumerGroup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.Environment = cfg.Environment
	tracingConfig.OTLPEndpoint = cfg.OTLPEndpoint
	tracingConfig.Enabled = cfg.TracingEnabled
	shutdownTracing, err := tracing.Init(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = cfg.MongoURI
	mongoConfig.Database = cfg.MongoDatabase
	mongoConfig.ReplicaSet = cfg.MongoReplicaSet
	mongoClient, err := mongodb.NewClient(ctx, mongoConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceInventory)

	inventoryRepo := posMongo.NewInventoryRepository(mongoClient.Database(), eventFactory)
	ledgerRepo := posMongo.NewInventoryTransactionRepository(mongoClient.Database())
	deadLetterRepo := posMongo.NewDeadLetterRepository(mongoClient.Database())

	dedupeRepo := idempotency.NewMongoMessageRepository(mongoClient.Database())
	if err := dedupeRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to ensure idempotency indexes")
		os.Exit(1)
	}

	reconciliation := application.NewReconciliationService(inventoryRepo, ledgerRepo, nil, logger, m)
	handlers := worker.NewEventHandlers(reconciliation, mongoClient, logger)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = cfg.KafkaBrokers
	kafkaConfig.ClientID = serviceName
	kafkaConfig.ConsumerGroup = cfg.ConsumerGroup

	consumer := kafka.NewConsumer(kafkaConfig, deadLetterRepo, m, logger)
	worker.RegisterHandlers(consumer, handlers, dedupeRepo, serviceName, cfg.ConsumerGroup, m)

	// Start blocks until the context is cancelled.
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Consumer stopped unexpectedly")
			cancel()
		}
	}()

	// Stock alert events raised during reconciliation land in the
	// worker's own outbox and are published to the inventory topic.
	producer := kafka.NewProducer(kafkaConfig, m, logger)
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("outbox-publisher"),
		logger,
		m,
	)
	publisher := outbox.NewPublisher(
		inventoryRepo.GetOutboxRepository(),
		producer,
		breaker,
		logger,
		m,
		outbox.DefaultPublisherConfig(),
	)
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}

	inventoryService := application.NewInventoryApplicationService(inventoryRepo, ledgerRepo, nil, logger)
	deadLetterService := application.NewDeadLetterApplicationService(deadLetterRepo, nil, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.NoRoute(middleware.NoRoute())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		checkCtx, checkCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer checkCancel()
		return mongoClient.HealthCheck(checkCtx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	v1 := router.Group("/api/v1")
	{
		inventory := v1.Group("/inventory")
		{
			inventory.GET("", listInventoryHandler(inventoryService))
			inventory.GET("/low-stock", listLowStockHandler(inventoryService))
			inventory.GET("/transactions", listTransactionsHandler(inventoryService))
			inventory.GET("/:storeId/:sku", getInventoryHandler(inventoryService))
			inventory.POST("/receive", receiveStockHandler(inventoryService))
			inventory.POST("/adjust", adjustStockHandler(inventoryService))
		}

		deadLetters := v1.Group("/dead-letters")
		{
			deadLetters.GET("", listDeadLettersHandler(deadLetterService))
			deadLetters.GET("/:entryId", getDeadLetterHandler(deadLetterService))
			deadLetters.POST("/:entryId/resolve", resolveDeadLetterHandler(deadLetterService))
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := consumer.Close(); err != nil {
		logger.WithError(err).Error("Kafka consumer close failed")
	}
	if err := publisher.Stop(); err != nil {
		logger.WithError(err).Error("Outbox publisher shutdown failed")
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Error("Kafka producer close failed")
	}
	if err := mongoClient.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("MongoDB close failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Error("Tracing shutdown failed")
	}

	logger.Info("Inventory worker stopped")
}

// Config holds the worker configuration loaded from environment variables
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoURI        string
	MongoDatabase   string
	MongoReplicaSet string

	KafkaBrokers  []string
	ConsumerGroup string

	OTLPEndpoint   string
	TracingEnabled bool
}

func loadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "pos"),
		MongoReplicaSet: getEnv("MONGODB_REPLICA_SET", ""),

		KafkaBrokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "pos-inventory-worker"),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return fallback
}
