package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/features"
)

// DefaultPredictionTTL bounds how long a served forecast may be reused.
const DefaultPredictionTTL = 15 * time.Minute

// PredictionService serves view forecasts for tracked videos.
type PredictionService struct {
	videos    domain.VideoRepository
	channels  domain.ChannelRepository
	snapshots domain.SnapshotRepository
	provider  domain.MetadataProvider
	cache     domain.Cache
	models    *ModelSet
	pipeline  *features.Pipeline
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(
	videos domain.VideoRepository,
	channels domain.ChannelRepository,
	snapshots domain.SnapshotRepository,
	provider domain.MetadataProvider,
	cache domain.Cache,
	models *ModelSet,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *PredictionService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPredictionTTL
	}

	return &PredictionService{
		videos:    videos,
		channels:  channels,
		snapshots: snapshots,
		provider:  provider,
		cache:     cache,
		models:    models,
		pipeline:  features.New(),
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Predict forecasts cumulative views for one video at one horizon.
//
// Unknown videos are fetched from the metadata provider and stored, so a
// cold video can be forecast on first request. Results are cached per
// (video, horizon); the cache is best-effort and failures only log.
func (s *PredictionService) Predict(ctx context.Context, videoID string, timeframeDays int) (*domain.PredictionResult, error) {
	if videoID == "" {
		return nil, &domain.ValidationError{Field: "video_id", Reason: "video id is required"}
	}
	if timeframeDays <= 0 {
		return nil, &domain.ValidationError{Field: "timeframe_days", Reason: "timeframe must be positive"}
	}

	cacheKey := predictionCacheKey(videoID, timeframeDays, s.models)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	video, channel, err := s.resolveVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	series, err := s.snapshots.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	vec := s.pipeline.TransformWithHistory(video, channel, historyFromSnapshots(series))

	predictor := s.models.Get(domain.ModelTypeFor(video))
	result, err := predictor.Predict(videoID, vec, timeframeDays)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, result)

	s.logger.Debug("prediction served",
		zap.String("video_id", videoID),
		zap.Int("timeframe_days", timeframeDays),
		zap.String("model_type", string(result.ModelType)),
		zap.Int64("predicted_views", result.PredictedViews),
		zap.Float64("confidence", result.Confidence),
	)

	return result, nil
}

// PredictTimeframes forecasts one video across several horizons.
// An empty timeframe list means the standard horizons.
func (s *PredictionService) PredictTimeframes(ctx context.Context, videoID string, timeframes []int) ([]*domain.PredictionResult, error) {
	if len(timeframes) == 0 {
		timeframes = domain.StandardTimeframes
	}

	results := make([]*domain.PredictionResult, 0, len(timeframes))
	for _, days := range timeframes {
		res, err := s.Predict(ctx, videoID, days)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

// resolveVideo loads a video and its channel, falling back to the
// metadata provider for videos not yet tracked.
func (s *PredictionService) resolveVideo(ctx context.Context, videoID string) (*domain.VideoRecord, *domain.ChannelRecord, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}

	if video == nil {
		fetched, channel, err := s.provider.FetchVideo(ctx, videoID)
		if err != nil {
			return nil, nil, err
		}
		if fetched == nil {
			return nil, nil, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
		}

		if err := s.videos.Upsert(ctx, fetched); err != nil {
			return nil, nil, err
		}
		if channel != nil {
			if err := s.channels.Upsert(ctx, channel); err != nil {
				return nil, nil, err
			}
		}

		s.logger.Info("cold video fetched from provider",
			zap.String("video_id", videoID),
			zap.String("provider", s.provider.Name()),
		)

		return fetched, channel, nil
	}

	channel, err := s.channels.GetByID(ctx, video.ChannelID)
	if err != nil {
		return nil, nil, err
	}

	return video, channel, nil
}

func (s *PredictionService) fromCache(ctx context.Context, key string) *domain.PredictionResult {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("prediction cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var result domain.PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("prediction cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}

	return &result
}

func (s *PredictionService) toCache(ctx context.Context, key string, result *domain.PredictionResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("prediction cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// predictionCacheKey includes the serving versions so a model swap
// invalidates stale forecasts without an explicit flush.
func predictionCacheKey(videoID string, timeframeDays int, models *ModelSet) string {
	short := models.Get(domain.ModelTypeShortForm).Version()
	long := models.Get(domain.ModelTypeLongForm).Version()

	return fmt.Sprintf("prediction:%s:%d:%s:%s", videoID, timeframeDays, short, long)
}

// historyFromSnapshots condenses a stored snapshot series into the
// history signals the feature pipeline consumes. An empty series yields
// nil, which the pipeline fills with neutral defaults.
func historyFromSnapshots(series []*domain.Snapshot) *features.History {
	if len(series) == 0 {
		return nil
	}

	rates := domain.GrowthRates(series)

	var sum float64
	for _, r := range rates {
		sum += r
	}
	avg := 0.0
	if len(rates) > 0 {
		avg = sum / float64(len(rates))
	}

	anomalies := 0
	for _, s := range series {
		if s.IsAnomaly {
			anomalies++
		}
	}

	return &features.History{
		AvgGrowthRate: avg,
		Momentum:      domain.Momentum(rates),
		AnomalyCount:  anomalies,
		SnapshotCount: len(series),
	}
}
