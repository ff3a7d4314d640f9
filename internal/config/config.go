// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Poll      PollConfig      `mapstructure:"poll"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Training  TrainingConfig  `mapstructure:"training"`
	Models    ModelsConfig    `mapstructure:"models"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ProviderConfig holds external provider settings.
type ProviderConfig struct {
	YouTube ProviderEndpoint `mapstructure:"youtube"`
}

// ProviderEndpoint holds a single provider's configuration.
type ProviderEndpoint struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// PollConfig holds background statistics polling settings.
type PollConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	OnStartup bool          `mapstructure:"on_startup"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TrackingConfig holds snapshot anomaly detection settings.
type TrackingConfig struct {
	AnomalyWindow    int     `mapstructure:"anomaly_window"`
	AnomalyThreshold float64 `mapstructure:"anomaly_threshold"`
}

// TrainingConfig holds training orchestration settings.
type TrainingConfig struct {
	ScheduleEnabled  bool          `mapstructure:"schedule_enabled"`
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`

	TrainRatio float64 `mapstructure:"train_ratio"`
	Seed       int64   `mapstructure:"seed"`

	// Candidate selection thresholds.
	MinViews       int64   `mapstructure:"min_views"`
	MinSubscribers int64   `mapstructure:"min_subscribers"`
	MinSnapshots   int64   `mapstructure:"min_snapshots"`
	MinAgeHours    float64 `mapstructure:"min_age_hours"`
}

// ModelsConfig holds per-type model hyperparameters.
type ModelsConfig struct {
	MinTrainingSamples int         `mapstructure:"min_training_samples"`
	Short              ModelConfig `mapstructure:"short"`
	Long               ModelConfig `mapstructure:"long"`
}

// ModelConfig holds one model's booster hyperparameters.
type ModelConfig struct {
	Trees          int     `mapstructure:"trees"`
	MaxDepth       int     `mapstructure:"max_depth"`
	LearningRate   float64 `mapstructure:"learning_rate"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf"`
	SubsampleRatio float64 `mapstructure:"subsample_ratio"`
	Seed           int64   `mapstructure:"seed"`
}

// ArtifactsConfig holds model artifact storage settings.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for caching and locking.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds prediction caching settings.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PredictionTTL time.Duration `mapstructure:"prediction_ttl"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "view-forecast-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "view_forecast")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// YouTube provider defaults
	v.SetDefault("provider.youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("provider.youtube.api_key", "")
	v.SetDefault("provider.youtube.timeout", "10s")
	v.SetDefault("provider.youtube.retry.max_attempts", 3)
	v.SetDefault("provider.youtube.retry.wait_time", "1s")
	v.SetDefault("provider.youtube.retry.max_wait_time", "5s")
	v.SetDefault("provider.youtube.circuit_breaker.max_requests", 3)
	v.SetDefault("provider.youtube.circuit_breaker.interval", "60s")
	v.SetDefault("provider.youtube.circuit_breaker.timeout", "30s")
	v.SetDefault("provider.youtube.circuit_breaker.failure_ratio", 0.5)

	// Poll defaults
	v.SetDefault("poll.interval", "1h")
	v.SetDefault("poll.on_startup", false)
	v.SetDefault("poll.timeout", "10m")

	// Tracking defaults
	v.SetDefault("tracking.anomaly_window", 10)
	v.SetDefault("tracking.anomaly_threshold", 3.0)

	// Training defaults
	v.SetDefault("training.schedule_enabled", false)
	v.SetDefault("training.schedule_interval", "24h")
	v.SetDefault("training.timeout", "20m")
	v.SetDefault("training.lock_ttl", "30m")
	v.SetDefault("training.train_ratio", 0.8)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.min_views", 100)
	v.SetDefault("training.min_subscribers", 10)
	v.SetDefault("training.min_snapshots", 3)
	v.SetDefault("training.min_age_hours", 168)

	// Model defaults
	v.SetDefault("models.min_training_samples", 50)
	v.SetDefault("models.short.trees", 100)
	v.SetDefault("models.short.max_depth", 4)
	v.SetDefault("models.short.learning_rate", 0.1)
	v.SetDefault("models.short.min_samples_leaf", 3)
	v.SetDefault("models.short.subsample_ratio", 0.8)
	v.SetDefault("models.short.seed", 1)
	v.SetDefault("models.long.trees", 100)
	v.SetDefault("models.long.max_depth", 4)
	v.SetDefault("models.long.learning_rate", 0.1)
	v.SetDefault("models.long.min_samples_leaf", 3)
	v.SetDefault("models.long.subsample_ratio", 0.8)
	v.SetDefault("models.long.seed", 1)

	// Artifact defaults
	v.SetDefault("artifacts.dir", "./data/artifacts")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.prediction_ttl", "15m")
	v.SetDefault("cache.key_prefix", "forecast")
}
