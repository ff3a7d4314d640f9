// Package job provides background job schedulers.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/pkg/locker"
)

// PollScheduler runs periodic statistics polling with distributed locking
// to ensure only one instance polls at a time.
type PollScheduler struct {
	tracking *service.TrackingService
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	locker   locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// PollConfig holds poll scheduler configuration.
type PollConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewPollScheduler creates a new PollScheduler with distributed locking support.
func NewPollScheduler(
	tracking *service.TrackingService,
	cfg PollConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *PollScheduler {
	return &PollScheduler{
		tracking: tracking,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		locker:   locker,
	}
}

// Start begins the background polling job.
func (s *PollScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting poll scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *PollScheduler) Stop() {
	s.logger.Info("stopping poll scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("poll scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *PollScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	// Run immediately if configured
	if runOnStartup {
		s.executePoll()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executePoll()
		}
	}
}

// executePoll performs one polling cycle with distributed locking and timeout.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: Lock held for full interval to prevent duplicate polls
//   - Failure: Lock released immediately to allow retry by another instance
func (s *PollScheduler) executePoll() {
	const lockKey = "poll:scheduler:lock"

	// Try to acquire lock with interval-based TTL (cooldown model)
	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is polling, skipping execution")

		return
	}

	// Lock acquired - run poll with timeout
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := s.tracking.PollAll(ctx)
	if err != nil {
		// Release lock immediately on error (allow immediate retry)
		if rerr := s.locker.Release(s.ctx, lockKey); rerr != nil {
			s.logger.Error("failed to release lock after poll error", zap.Error(rerr))
		}
		s.logger.Error("polling cycle failed, lock released for retry", zap.Error(err))

		return
	}

	if result.VideosFailed > 0 {
		s.logger.Warn("polling cycle completed with failures",
			zap.Int("videos_polled", result.VideosPolled),
			zap.Int("videos_failed", result.VideosFailed),
			zap.Int("snapshots_appended", result.SnapshotsAppended),
		)
	} else {
		// Lock will expire naturally after interval (cooldown period)
		s.logger.Info("polling cycle completed, lock held for cooldown",
			zap.Int("videos_polled", result.VideosPolled),
			zap.Int("snapshots_appended", result.SnapshotsAppended),
			zap.Int("anomalies_flagged", result.AnomaliesFlagged),
			zap.Duration("cooldown", s.interval),
		)
	}
}

// TrainScheduler runs periodic model retraining. The training service
// carries its own distributed lock, so concurrent instances degrade to a
// skipped run rather than a double train.
type TrainScheduler struct {
	training *service.TrainingService
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TrainConfig holds training scheduler configuration.
type TrainConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// NewTrainScheduler creates a new TrainScheduler.
func NewTrainScheduler(training *service.TrainingService, cfg TrainConfig, logger *zap.Logger) *TrainScheduler {
	return &TrainScheduler{
		training: training,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Start begins the background training job.
func (s *TrainScheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting train scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the scheduler.
func (s *TrainScheduler) Stop() {
	s.logger.Info("stopping train scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("train scheduler stopped")
}

func (s *TrainScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeTrain()
		}
	}
}

func (s *TrainScheduler) executeTrain() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	report, err := s.training.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrTrainingInProgress) {
			s.logger.Debug("another instance is training, skipping execution")

			return
		}
		s.logger.Error("scheduled training failed", zap.Error(err))

		return
	}

	s.logger.Info("scheduled training completed",
		zap.Int("samples", report.SampleCount),
		zap.Duration("duration", report.Duration),
	)
}
