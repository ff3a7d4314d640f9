// Package main is the entry point for the view-forecast-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/config"
	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/infra/artifact"
	"view-forecast-service/internal/infra/postgres"
	"view-forecast-service/internal/infra/postgres/migrations"
	"view-forecast-service/internal/infra/provider"
	"view-forecast-service/internal/infra/provider/youtube"
	rediscache "view-forecast-service/internal/infra/redis"
	"view-forecast-service/internal/job"
	"view-forecast-service/internal/logger"
	"view-forecast-service/internal/model"
	"view-forecast-service/internal/transport/httpserver"
	"view-forecast-service/internal/validator"
	"view-forecast-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting view-forecast-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repositories
	videoRepo := postgres.NewVideoRepository(db)
	channelRepo := postgres.NewChannelRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)

	// Create YouTube provider client
	yt := youtube.New(
		provider.ClientConfig{
			BaseURL: cfg.Provider.YouTube.BaseURL,
			Timeout: cfg.Provider.YouTube.Timeout,
			Retry: provider.RetryConfig{
				MaxAttempts: cfg.Provider.YouTube.Retry.MaxAttempts,
				WaitTime:    cfg.Provider.YouTube.Retry.WaitTime,
				MaxWaitTime: cfg.Provider.YouTube.Retry.MaxWaitTime,
			},
			CB: provider.CBConfig{
				MaxRequests:  cfg.Provider.YouTube.CB.MaxRequests,
				Interval:     cfg.Provider.YouTube.CB.Interval,
				Timeout:      cfg.Provider.YouTube.CB.Timeout,
				FailureRatio: cfg.Provider.YouTube.CB.FailureRatio,
			},
		},
		cfg.Provider.YouTube.APIKey,
		log.Logger,
	)

	// Connect to Redis
	ctx := context.Background()
	redisClient, err := rediscache.NewClient(ctx, rediscache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Create cache implementation (optional, based on config)
	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("prediction cache enabled",
			zap.Duration("prediction_ttl", cfg.Cache.PredictionTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("prediction cache disabled")
	}

	// Create artifact store and restore serving models
	artifactStore, err := artifact.NewStore(cfg.Artifacts.Dir, log.Logger)
	if err != nil {
		log.Fatal("failed to create artifact store", zap.Error(err))
	}

	models := service.NewModelSet()
	models.WarmStart(ctx, artifactStore, log.Logger)

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create services
	predictionSvc := service.NewPredictionService(
		videoRepo, channelRepo, snapshotRepo, yt,
		cache, models, cfg.Cache.PredictionTTL, log.Logger,
	)
	trackingSvc := service.NewTrackingService(
		videoRepo, channelRepo, snapshotRepo, yt,
		cfg.Tracking.AnomalyWindow, cfg.Tracking.AnomalyThreshold, log.Logger,
	)
	trainingSvc := service.NewTrainingService(
		videoRepo, channelRepo, snapshotRepo,
		artifactStore, models, distLocker,
		service.TrainingConfig{
			Filter: domain.TrainingFilter{
				MinViews:       cfg.Training.MinViews,
				MinSubscribers: cfg.Training.MinSubscribers,
				MinSnapshots:   cfg.Training.MinSnapshots,
				MinAgeHours:    cfg.Training.MinAgeHours,
			},
			TrainRatio: cfg.Training.TrainRatio,
			Seed:       cfg.Training.Seed,
			Short:      modelConfig(cfg.Models.Short, cfg.Models.MinTrainingSamples),
			Long:       modelConfig(cfg.Models.Long, cfg.Models.MinTrainingSamples),
			LockTTL:    cfg.Training.LockTTL,
		},
		log.Logger,
	)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
		},
		predictionSvc,
		trackingSvc,
		trainingSvc,
		models,
		artifactStore,
		videoRepo,
		db,
		v,
		log.Logger,
	)

	// Start poll scheduler with distributed locking
	pollScheduler := job.NewPollScheduler(
		trackingSvc,
		job.PollConfig{
			Interval:  cfg.Poll.Interval,
			Timeout:   cfg.Poll.Timeout,
			OnStartup: cfg.Poll.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	pollScheduler.Start(cfg.Poll.OnStartup)

	// Start training scheduler if configured
	var trainScheduler *job.TrainScheduler
	if cfg.Training.ScheduleEnabled {
		trainScheduler = job.NewTrainScheduler(
			trainingSvc,
			job.TrainConfig{
				Interval: cfg.Training.ScheduleInterval,
				Timeout:  cfg.Training.Timeout,
			},
			log.Logger,
		)
		trainScheduler.Start()
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop schedulers
		pollScheduler.Stop()
		if trainScheduler != nil {
			trainScheduler.Stop()
		}

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// modelConfig maps configured hyperparameters to a model config.
func modelConfig(cfg config.ModelConfig, minSamples int) model.Config {
	return model.Config{
		Booster: model.BoosterConfig{
			Trees:          cfg.Trees,
			MaxDepth:       cfg.MaxDepth,
			LearningRate:   cfg.LearningRate,
			MinSamplesLeaf: cfg.MinSamplesLeaf,
			SubsampleRatio: cfg.SubsampleRatio,
			Seed:           cfg.Seed,
		},
		MinTrainingSamples: minSamples,
	}
}
