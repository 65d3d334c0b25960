package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pos-platform/pos/internal/application"
	posMongo "github.com/pos-platform/pos/internal/infrastructure/mongodb"
	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/kafka"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
	"github.com/pos-platform/pos/pkg/middleware"
	"github.com/pos-platform/pos/pkg/mongodb"
	"github.com/pos-platform/pos/pkg/outbox"
	"github.com/pos-platform/pos/pkg/resilience"
	"github.com/pos-platform/pos/pkg/tracing"
)

const serviceName = "pos-api"

func main() {
	cfg := loadConfig()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting POS API service", "port", cfg.Port, "environment", cfg.Environment)

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

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = cfg.KafkaBrokers
	kafkaConfig.ClientID = serviceName
	producer := kafka.NewProducer(kafkaConfig, m, logger)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePOS)

	saleRepo := posMongo.NewSaleRepository(mongoClient.Database(), eventFactory)
	returnRepo := posMongo.NewReturnRepository(mongoClient.Database(), eventFactory)

	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("outbox-publisher"),
		logger,
		m,
	)
	publisherConfig := outbox.DefaultPublisherConfig()
	publisherConfig.PollInterval = cfg.OutboxPollInterval
	publisher := outbox.NewPublisher(
		saleRepo.GetOutboxRepository(),
		producer,
		breaker,
		logger,
		m,
		publisherConfig,
	)
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}

	saleService := application.NewSaleApplicationService(saleRepo, nil, nil, logger, m)
	returnService := application.NewReturnApplicationService(returnRepo, saleRepo, nil, nil, logger, m)

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
		sales := v1.Group("/sales")
		{
			sales.POST("", createSaleHandler(saleService))
			sales.GET("", listSalesHandler(saleService))
			sales.GET("/:saleId", getSaleHandler(saleService))
			sales.POST("/:saleId/items", addSaleItemHandler(saleService))
			sales.PUT("/:saleId/items/:sku", updateSaleItemHandler(saleService))
			sales.DELETE("/:saleId/items/:sku", removeSaleItemHandler(saleService))
			sales.POST("/:saleId/discount", applyDiscountHandler(saleService))
			sales.POST("/:saleId/payments", addPaymentHandler(saleService))
			sales.POST("/:saleId/complete", completeSaleHandler(saleService))
			sales.POST("/:saleId/cancel", cancelSaleHandler(saleService))
		}

		returns := v1.Group("/returns")
		{
			returns.POST("", createReturnHandler(returnService))
			returns.GET("", listReturnsHandler(returnService))
			returns.GET("/:returnId", getReturnHandler(returnService))
			returns.POST("/:returnId/items", addReturnItemHandler(returnService))
			returns.POST("/:returnId/process", processReturnHandler(returnService))
			returns.POST("/:returnId/cancel", cancelReturnHandler(returnService))
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
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

	logger.Info("POS API service stopped")
}

// Config holds the service configuration loaded from environment variables
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoURI        string
	MongoDatabase   string
	MongoReplicaSet string

	KafkaBrokers []string

	OTLPEndpoint   string
	TracingEnabled bool

	OutboxPollInterval time.Duration
}

func loadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "pos"),
		MongoReplicaSet: getEnv("MONGODB_REPLICA_SET", ""),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),

		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 1*time.Second),
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
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
