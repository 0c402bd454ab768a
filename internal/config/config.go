package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/platform/logger"
)

// Config holds all configuration for the service, sourced from flat
// environment variables (a .env file is loaded best-effort in main).
type Config struct {
	ServiceName            string `mapstructure:"SERVICE_NAME"`
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDatabase          string `mapstructure:"MONGO_DATABASE"`
	NATSURL                string `mapstructure:"NATS_URL"`
	RedisAddress           string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword          string `mapstructure:"REDIS_PASSWORD"`
	RedisDB                int    `mapstructure:"REDIS_DB"`
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	MatchWeightsFile       string `mapstructure:"MATCH_WEIGHTS_FILE"`
}

// LoadConfig reads configuration from environment variables with defaults
// suitable for local development.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "match-service")
	viper.SetDefault("HTTP_PORT", "8084")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "hayvn_match")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9094")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("MATCH_WEIGHTS_FILE", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
		zap.String("match_weights_file", cfg.MatchWeightsFile),
	)

	return &cfg, nil
}
