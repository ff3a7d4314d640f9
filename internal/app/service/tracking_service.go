package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
)

// statisticsBatchSize bounds how many video ids go into one provider
// statistics call.
const statisticsBatchSize = 50

// TrackingService manages the tracked-video set and its snapshot series.
type TrackingService struct {
	videos    domain.VideoRepository
	channels  domain.ChannelRepository
	snapshots domain.SnapshotRepository
	provider  domain.MetadataProvider

	anomalyWindow    int
	anomalyThreshold float64

	logger *zap.Logger
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	videos domain.VideoRepository,
	channels domain.ChannelRepository,
	snapshots domain.SnapshotRepository,
	provider domain.MetadataProvider,
	anomalyWindow int,
	anomalyThreshold float64,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		videos:           videos,
		channels:         channels,
		snapshots:        snapshots,
		provider:         provider,
		anomalyWindow:    anomalyWindow,
		anomalyThreshold: anomalyThreshold,
		logger:           logger,
	}
}

// Track registers a video for periodic polling, fetching its metadata
// and channel from the provider.
func (s *TrackingService) Track(ctx context.Context, videoID string) (*domain.VideoRecord, error) {
	if videoID == "" {
		return nil, &domain.ValidationError{Field: "video_id", Reason: "video id is required"}
	}

	video, channel, err := s.provider.FetchVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}
	if err := video.Validate(); err != nil {
		return nil, err
	}

	if err := s.videos.Upsert(ctx, video); err != nil {
		return nil, err
	}
	if channel != nil {
		if err := s.channels.Upsert(ctx, channel); err != nil {
			return nil, err
		}
	}

	s.logger.Info("video tracked",
		zap.String("video_id", video.ID),
		zap.String("channel_id", video.ChannelID),
	)

	return video, nil
}

// PollResult summarizes one polling cycle.
type PollResult struct {
	VideosPolled      int           `json:"videos_polled"`
	SnapshotsAppended int           `json:"snapshots_appended"`
	AnomaliesFlagged  int           `json:"anomalies_flagged"`
	VideosFailed      int           `json:"videos_failed"`
	Duration          time.Duration `json:"duration"`
}

// PollAll fetches current statistics for every tracked video and appends
// one enriched snapshot per video. Partial failures are allowed: one bad
// video never aborts the cycle.
func (s *TrackingService) PollAll(ctx context.Context) (*PollResult, error) {
	start := time.Now()

	videos, err := s.videos.ListTracked(ctx)
	if err != nil {
		return nil, err
	}

	result := &PollResult{VideosPolled: len(videos)}
	if len(videos) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	byID := make(map[string]*domain.VideoRecord, len(videos))
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	s.logger.Info("polling tracked videos", zap.Int("count", len(ids)))

	for from := 0; from < len(ids); from += statisticsBatchSize {
		to := from + statisticsBatchSize
		if to > len(ids) {
			to = len(ids)
		}

		readings, err := s.provider.FetchStatistics(ctx, ids[from:to])
		if err != nil {
			result.VideosFailed += to - from
			s.logger.Warn("statistics batch failed",
				zap.Int("batch_size", to-from),
				zap.Error(err),
			)
			continue
		}

		for _, reading := range readings {
			video := byID[reading.VideoID]
			if video == nil {
				continue
			}

			appended, flagged, err := s.ingest(ctx, video, reading.Reading)
			if err != nil {
				result.VideosFailed++
				s.logger.Warn("snapshot ingest failed",
					zap.String("video_id", reading.VideoID),
					zap.Error(err),
				)
				continue
			}
			result.SnapshotsAppended += appended
			result.AnomaliesFlagged += flagged
		}
	}

	result.Duration = time.Since(start)

	s.logger.Info("poll cycle completed",
		zap.Int("videos_polled", result.VideosPolled),
		zap.Int("snapshots_appended", result.SnapshotsAppended),
		zap.Int("anomalies_flagged", result.AnomaliesFlagged),
		zap.Int("videos_failed", result.VideosFailed),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// ingest appends one new reading to a video's series.
//
// The stored series is replayed through a fresh tracker so the new
// point's growth fields and anomaly flag are derived against the full
// rate history. Stored points that only become classifiable with the new
// context get their anomaly flag set in place; flags are never cleared.
func (s *TrackingService) ingest(ctx context.Context, video *domain.VideoRecord, reading domain.Reading) (appended, flagged int, err error) {
	stored, err := s.snapshots.ListByVideo(ctx, video.ID)
	if err != nil {
		return 0, 0, err
	}

	if n := len(stored); n > 0 && !reading.CapturedAt.After(stored[n-1].CapturedAt) {
		// A poll cycle that overlaps the previous one re-delivers the
		// same reading; skip rather than reject.
		return 0, 0, nil
	}

	readings := make([]domain.Reading, 0, len(stored)+1)
	for _, snap := range stored {
		readings = append(readings, domain.Reading{
			CapturedAt:   snap.CapturedAt,
			ViewCount:    snap.ViewCount,
			LikeCount:    snap.LikeCount,
			CommentCount: snap.CommentCount,
		})
	}
	readings = append(readings, reading)

	tracker := domain.NewTracker(s.anomalyWindow, s.anomalyThreshold)
	enriched, err := tracker.Enrich(video, readings)
	if err != nil {
		return 0, 0, err
	}

	newest := enriched[len(enriched)-1]
	if err := s.snapshots.Append(ctx, []*domain.Snapshot{newest}); err != nil {
		return 0, 0, err
	}
	if newest.IsAnomaly {
		flagged++
		s.logger.Warn("anomalous snapshot",
			zap.String("video_id", video.ID),
			zap.Time("captured_at", newest.CapturedAt),
			zap.Int64("view_count", newest.ViewCount),
		)
	}

	for i, snap := range enriched[:len(enriched)-1] {
		if snap.IsAnomaly && !stored[i].IsAnomaly {
			if err := s.snapshots.MarkAnomalous(ctx, video.ID, snap.CapturedAt); err != nil {
				return 1, flagged, err
			}
			flagged++
		}
	}

	return 1, flagged, nil
}

// GrowthSummary builds the live monitoring view of one video's series.
func (s *TrackingService) GrowthSummary(ctx context.Context, videoID string) (*domain.GrowthSummary, error) {
	if videoID == "" {
		return nil, &domain.ValidationError{Field: "video_id", Reason: "video id is required"}
	}

	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}

	series, err := s.snapshots.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	summary := &domain.GrowthSummary{
		VideoID:       videoID,
		SnapshotCount: len(series),
		Momentum:      domain.MomentumNeutral,
		Tier:          domain.TierStagnant,
	}
	if len(series) == 0 {
		return summary, nil
	}

	latest := series[len(series)-1]
	summary.LatestViews = latest.ViewCount

	rates := domain.GrowthRates(series)
	summary.Momentum = domain.Momentum(rates)
	if len(rates) > 0 {
		last := rates[len(rates)-1]
		summary.GrowthRate = &last
		summary.Tier = domain.Tier(last)
	}

	for _, snap := range series {
		if snap.IsAnomaly {
			summary.AnomalyCount++
		}
	}

	return summary, nil
}

// Snapshots returns a video's full stored series, oldest first.
func (s *TrackingService) Snapshots(ctx context.Context, videoID string) ([]*domain.Snapshot, error) {
	return s.snapshots.ListByVideo(ctx, videoID)
}
