package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/eval"
	"view-forecast-service/internal/features"
	"view-forecast-service/internal/model"
	"view-forecast-service/pkg/locker"
)

// ErrTrainingInProgress is returned when another instance holds the
// training lock.
var ErrTrainingInProgress = errors.New("a training run is already in progress")

const trainingLockKey = "training:run"

// TrainingConfig holds one training run's configuration.
type TrainingConfig struct {
	// Filter selects which videos qualify as training data.
	Filter domain.TrainingFilter

	// TrainRatio is the deterministic train/validation split fraction.
	TrainRatio float64

	// Seed drives the split shuffle, making runs reproducible.
	Seed int64

	// Per-type model hyperparameters.
	Short model.Config
	Long  model.Config

	// LockTTL bounds how long the distributed training lock is held.
	LockTTL time.Duration
}

func (c TrainingConfig) withDefaults() TrainingConfig {
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		c.TrainRatio = 0.8
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}

	return c
}

// ModelReport summarizes one model's training outcome. Evaluation is the
// full held-out report: metrics, residual diagnostics and the
// feature-importance ranking.
type ModelReport struct {
	Type       domain.ModelType      `json:"type"`
	Version    string                `json:"version"`
	Samples    int                   `json:"samples"`
	Training   model.TrainingMetrics `json:"training"`
	Evaluation *eval.Report          `json:"evaluation,omitempty"`
}

// TrainingReport summarizes one complete run over both model types.
type TrainingReport struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	CandidateCount int           `json:"candidate_count"`
	SampleCount    int           `json:"sample_count"`
	SkippedCount   int           `json:"skipped_count"`

	ShortForm *ModelReport `json:"short_form"`
	LongForm  *ModelReport `json:"long_form"`
}

// TrainingService orchestrates full training runs: data selection,
// feature extraction, model fitting, evaluation and artifact persistence.
type TrainingService struct {
	videos    domain.VideoRepository
	channels  domain.ChannelRepository
	snapshots domain.SnapshotRepository
	store     ArtifactStore
	models    *ModelSet
	locker    locker.DistributedLocker
	cfg       TrainingConfig
	logger    *zap.Logger
}

// NewTrainingService creates a new TrainingService.
func NewTrainingService(
	videos domain.VideoRepository,
	channels domain.ChannelRepository,
	snapshots domain.SnapshotRepository,
	store ArtifactStore,
	models *ModelSet,
	lock locker.DistributedLocker,
	cfg TrainingConfig,
	logger *zap.Logger,
) *TrainingService {
	return &TrainingService{
		videos:    videos,
		channels:  channels,
		snapshots: snapshots,
		store:     store,
		models:    models,
		locker:    lock,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Run executes one full training run under the distributed lock.
//
// The run is atomic with respect to serving: both models train, evaluate
// and persist before the serving set swaps. Any failure leaves the
// previous models serving and no partial artifacts referenced.
func (s *TrainingService) Run(ctx context.Context) (*TrainingReport, error) {
	acquired, err := s.locker.Acquire(ctx, trainingLockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring training lock: %w", err)
	}
	if !acquired {
		return nil, ErrTrainingInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), trainingLockKey); err != nil {
			s.logger.Warn("releasing training lock failed", zap.Error(err))
		}
	}()

	start := time.Now()
	report := &TrainingReport{StartedAt: start.UTC()}

	candidates, err := s.videos.ListForTraining(ctx, s.cfg.Filter)
	if err != nil {
		return nil, err
	}
	report.CandidateCount = len(candidates)

	s.logger.Info("training run started",
		zap.Int("candidates", len(candidates)),
		zap.Int64("seed", s.cfg.Seed),
	)

	samples, skipped, err := s.buildSamples(ctx, candidates)
	if err != nil {
		return nil, err
	}
	report.SampleCount = len(samples)
	report.SkippedCount = skipped

	if err := s.writeFeatureTable(ctx, start, samples); err != nil {
		return nil, err
	}

	short, long := splitByType(samples)

	shortReport, shortModel, err := s.trainOne(domain.ModelTypeShortForm, s.cfg.Short, short)
	if err != nil {
		return nil, err
	}
	longReport, longModel, err := s.trainOne(domain.ModelTypeLongForm, s.cfg.Long, long)
	if err != nil {
		return nil, err
	}
	report.ShortForm = shortReport
	report.LongForm = longReport

	shortArtifact, err := shortModel.Export()
	if err != nil {
		return nil, fmt.Errorf("exporting %s artifact: %w", shortModel.Type(), err)
	}
	longArtifact, err := longModel.Export()
	if err != nil {
		return nil, fmt.Errorf("exporting %s artifact: %w", longModel.Type(), err)
	}

	// The artifacts persist as a pair. A failed second save rolls the
	// first back so a later warm start can never pick up models from two
	// different runs.
	if err := s.store.Save(ctx, shortArtifact); err != nil {
		return nil, fmt.Errorf("saving %s artifact: %w", shortArtifact.ModelType, err)
	}
	if err := s.store.Save(ctx, longArtifact); err != nil {
		if derr := s.store.Delete(ctx, shortArtifact.ModelType, shortArtifact.Version); derr != nil {
			s.logger.Warn("rolling back artifact failed",
				zap.String("model_type", string(shortArtifact.ModelType)),
				zap.String("version", shortArtifact.Version),
				zap.Error(derr),
			)
		}
		return nil, fmt.Errorf("saving %s artifact: %w", longArtifact.ModelType, err)
	}

	s.models.Swap(shortModel, longModel)
	report.Duration = time.Since(start)

	s.logger.Info("training run completed",
		zap.Int("samples", report.SampleCount),
		zap.Int("skipped", report.SkippedCount),
		zap.String("short_form_version", shortModel.Version()),
		zap.String("long_form_version", longModel.Version()),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// trainOne fits, evaluates and diagnoses one model type.
func (s *TrainingService) trainOne(modelType domain.ModelType, cfg model.Config, samples []model.Sample) (*ModelReport, model.Predictor, error) {
	m, err := model.New(modelType, cfg)
	if err != nil {
		return nil, nil, err
	}

	train, validation := s.split(samples)

	metrics, err := m.Train(train, validation)
	if err != nil {
		return nil, nil, fmt.Errorf("training %s model: %w", modelType, err)
	}

	report := &ModelReport{
		Type:     modelType,
		Version:  m.Version(),
		Samples:  len(samples),
		Training: *metrics,
	}

	if len(validation) > 0 {
		holdout, err := m.Evaluate(validation)
		if err != nil {
			return nil, nil, err
		}

		evaluation := &eval.Report{
			ModelType:    modelType,
			ModelVersion: m.Version(),
			Metrics:      holdout,
			Importance:   eval.RankFeatureImportance(m.FeatureImportance()),
			CreatedAt:    time.Now().UTC(),
		}

		actual := make([]float64, len(validation))
		predicted := make([]float64, len(validation))
		for i, sample := range validation {
			res, err := m.Predict(sample.VideoID, sample.Features, model.BaseTimeframeDays)
			if err != nil {
				return nil, nil, err
			}
			actual[i] = sample.Target
			predicted[i] = float64(res.PredictedViews)
		}
		if diag, err := eval.AnalyzeResiduals(actual, predicted); err == nil {
			evaluation.Residuals = diag
		}

		report.Evaluation = evaluation
	}

	s.logger.Info("model trained",
		zap.String("model_type", string(modelType)),
		zap.String("version", m.Version()),
		zap.Int("train_samples", len(train)),
		zap.Int("validation_samples", len(validation)),
		zap.Float64("validation_r2", metrics.ValidationR2),
	)

	return report, m, nil
}

// buildSamples turns candidate videos into labeled training rows.
// Videos whose series cannot yield a 7-day target are skipped, never
// fabricated.
func (s *TrainingService) buildSamples(ctx context.Context, candidates []*domain.VideoRecord) ([]model.Sample, int, error) {
	pipeline := features.New()
	channelCache := make(map[string]*domain.ChannelRecord)
	channels := make(map[string]*domain.ChannelRecord)

	samples := make([]model.Sample, 0, len(candidates))
	fitted := make([]*domain.VideoRecord, 0, len(candidates))
	skipped := 0

	for _, video := range candidates {
		channel, ok := channelCache[video.ChannelID]
		if !ok {
			var err error
			channel, err = s.channels.GetByID(ctx, video.ChannelID)
			if err != nil {
				return nil, 0, err
			}
			channelCache[video.ChannelID] = channel
		}

		series, err := s.snapshots.ListByVideo(ctx, video.ID)
		if err != nil {
			return nil, 0, err
		}

		target, ok := sevenDayViews(video.PublishedAt, series)
		if !ok {
			skipped++
			continue
		}

		samples = append(samples, model.Sample{
			VideoID:  video.ID,
			Features: pipeline.TransformWithHistory(video, channel, historyFromSnapshots(series)),
			Target:   target,
		})
		fitted = append(fitted, video)
		if channel != nil {
			channels[channel.ID] = channel
		}
	}

	if len(fitted) > 0 {
		if err := pipeline.Fit(fitted, channels); err != nil {
			return nil, 0, err
		}
	}

	return samples, skipped, nil
}

// split shuffles deterministically by the configured seed and cuts at
// the train ratio.
func (s *TrainingService) split(samples []model.Sample) (train, validation []model.Sample) {
	shuffled := append([]model.Sample(nil), samples...)

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * s.cfg.TrainRatio)
	if cut < 1 {
		cut = len(shuffled)
	}

	return shuffled[:cut], shuffled[cut:]
}

// writeFeatureTable persists the run's flat feature table for offline
// analysis, one row per sample plus the target column.
func (s *TrainingService) writeFeatureTable(ctx context.Context, start time.Time, samples []model.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	names := features.FeatureNames()
	header := append(append([]string(nil), names...), "target_views_7d")

	rows := make([][]float64, len(samples))
	for i, sample := range samples {
		row := make([]float64, 0, len(names)+1)
		for _, name := range names {
			row = append(row, sample.Features[name])
		}
		rows[i] = append(row, sample.Target)
	}

	name := fmt.Sprintf("training_%s", start.UTC().Format("20060102T150405Z"))

	return s.store.WriteFeatureTable(ctx, name, header, rows)
}

// splitByType partitions samples between the two specialized models
// using the is_short feature already present in each vector.
func splitByType(samples []model.Sample) (short, long []model.Sample) {
	for _, sample := range samples {
		if sample.Features["is_short"] == 1 {
			short = append(short, sample)
		} else {
			long = append(long, sample)
		}
	}

	return short, long
}

// sevenDayViews derives the realized 7-day cumulative view count from a
// snapshot series by linear interpolation around the 7-day mark. Returns
// false when the series does not straddle the mark: a series ending
// before it never observed the count, and one starting after it would
// label the video with a later, inflated count.
func sevenDayViews(published time.Time, series []*domain.Snapshot) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	cutoff := published.Add(model.BaseTimeframeDays * 24 * time.Hour)

	idx := sort.Search(len(series), func(i int) bool {
		return series[i].CapturedAt.After(cutoff)
	})
	if idx == len(series) {
		// The newest snapshot may land exactly on the cutoff.
		last := series[len(series)-1]
		if last.CapturedAt.Equal(cutoff) {
			return float64(last.ViewCount), true
		}
		return 0, false
	}

	if idx == 0 {
		// Tracking started after the cutoff.
		return 0, false
	}

	after := series[idx]
	before := series[idx-1]
	span := after.CapturedAt.Sub(before.CapturedAt).Hours()
	if span <= 0 {
		return float64(after.ViewCount), true
	}

	frac := cutoff.Sub(before.CapturedAt).Hours() / span

	return float64(before.ViewCount) + frac*float64(after.ViewCount-before.ViewCount), true
}
