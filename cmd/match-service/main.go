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

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	redisAdapter "github.com/elach8/hayvn-match/internal/adapter/cache/redis"
	"github.com/elach8/hayvn-match/internal/adapter/httpapi"
	natsAdapter "github.com/elach8/hayvn-match/internal/adapter/messaging/nats"
	mongoRepo "github.com/elach8/hayvn-match/internal/adapter/repository/mongodb"
	"github.com/elach8/hayvn-match/internal/config"
	"github.com/elach8/hayvn-match/internal/matching"
	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/platform/metrics"
	"github.com/elach8/hayvn-match/internal/platform/tracer"
	"github.com/elach8/hayvn-match/internal/usecase"
)

const serviceName = "match-service"

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	// 2. Load Configuration
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// 3. Initialize OpenTelemetry Tracer
	tp := tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		appLogger.Info("Shutting down tracer provider...")
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := tp.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// 4. Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// 5. Connect to Redis
	redisClient, err := redisAdapter.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	cacheRepo := redisAdapter.NewRedisCacheRepository(redisClient, appLogger)

	// 6. Initialize NATS Publisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	// 7. Initialize Metrics
	metricsManager := metrics.NewManager(serviceName)
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.PrometheusMetricsPort))
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// 8. Initialize Repositories
	criteriaRepo := mongoRepo.NewCriteriaRepository(db, appLogger)
	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ListingRepository", zap.Error(err))
	}
	recommendationRepo, err := mongoRepo.NewRecommendationRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize RecommendationRepository", zap.Error(err))
	}
	propertyRepo, err := mongoRepo.NewPropertyRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize PropertyRepository", zap.Error(err))
	}
	linkRepo, err := mongoRepo.NewLinkRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LinkRepository", zap.Error(err))
	}
	appLogger.Info("Repositories initialized.")

	// 9. Initialize Matcher
	weights := matching.DefaultWeights()
	if cfg.MatchWeightsFile != "" {
		weights, err = matching.LoadWeightsFromFile(cfg.MatchWeightsFile)
		if err != nil {
			appLogger.Fatal("Failed to load match weights file", zap.String("path", cfg.MatchWeightsFile), zap.Error(err))
		}
		appLogger.Info("Match weights loaded from file", zap.String("path", cfg.MatchWeightsFile))
	}
	matcher := matching.NewMatcher(weights)

	// 10. Initialize Usecases
	recommendationUsecase := usecase.NewRecommendationUsecase(
		criteriaRepo, listingRepo, recommendationRepo, matcher, cacheRepo, natsPublisher, metricsManager, appLogger)
	attachUsecase := usecase.NewAttachUsecase(
		recommendationRepo, propertyRepo, linkRepo, listingRepo, cacheRepo, natsPublisher, metricsManager, appLogger)
	linkUsecase := usecase.NewLinkUsecase(linkRepo, propertyRepo, natsPublisher, appLogger)
	appLogger.Info("Usecases initialized.")

	// 11. Start HTTP Server
	handler := httpapi.NewHandler(recommendationUsecase, attachUsecase, linkUsecase, metricsManager, appLogger)
	router := httpapi.NewRouter(handler, appLogger, metricsManager)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
	}()

	// 12. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	appLogger.Info("Application shutting down...")
	// Deferred cleanups (Redis, NATS, MongoDB, tracer) run now.
}
