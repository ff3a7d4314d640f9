package dto

import (
	"time"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/model"
)

// PredictionResponse represents a single forecast in the response.
type PredictionResponse struct {
	VideoID        string   `json:"video_id"`
	TimeframeDays  int      `json:"timeframe_days"`
	PredictedViews int64    `json:"predicted_views"`
	Confidence     float64  `json:"confidence"`
	ModelType      string   `json:"model_type"`
	ModelVersion   string   `json:"model_version"`
	PredictedAt    string   `json:"predicted_at"`
	Warnings       []string `json:"warnings,omitempty"`
}

// FromPredictionResult converts domain.PredictionResult to PredictionResponse.
func FromPredictionResult(r *domain.PredictionResult) PredictionResponse {
	warnings := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, w.Code)
	}

	return PredictionResponse{
		VideoID:        r.VideoID,
		TimeframeDays:  r.TimeframeDays,
		PredictedViews: r.PredictedViews,
		Confidence:     r.Confidence,
		ModelType:      string(r.ModelType),
		ModelVersion:   r.ModelVersion,
		PredictedAt:    r.PredictedAt.Format(time.RFC3339),
		Warnings:       warnings,
	}
}

// ForecastResponse groups one video's forecasts across horizons.
type ForecastResponse struct {
	VideoID     string               `json:"video_id"`
	Predictions []PredictionResponse `json:"predictions"`
}

// FromPredictionResults converts a slice of results to ForecastResponse.
func FromPredictionResults(videoID string, results []*domain.PredictionResult) ForecastResponse {
	predictions := make([]PredictionResponse, len(results))
	for i, r := range results {
		predictions[i] = FromPredictionResult(r)
	}

	return ForecastResponse{VideoID: videoID, Predictions: predictions}
}

// VideoResponse represents a tracked video.
type VideoResponse struct {
	ID              string   `json:"id"`
	ChannelID       string   `json:"channel_id"`
	Title           string   `json:"title"`
	CategoryID      string   `json:"category_id"`
	Tags            []string `json:"tags,omitempty"`
	DurationSeconds int      `json:"duration_seconds"`
	IsShort         bool     `json:"is_short"`
	PublishedAt     string   `json:"published_at"`
	ViewCount       int64    `json:"view_count"`
	LikeCount       int64    `json:"like_count"`
	CommentCount    int64    `json:"comment_count"`
	Frozen          bool     `json:"frozen"`
}

// FromVideoRecord converts domain.VideoRecord to VideoResponse.
func FromVideoRecord(v *domain.VideoRecord) VideoResponse {
	return VideoResponse{
		ID:              v.ID,
		ChannelID:       v.ChannelID,
		Title:           v.Title,
		CategoryID:      v.CategoryID,
		Tags:            v.Tags,
		DurationSeconds: v.DurationSeconds,
		IsShort:         v.IsShort(),
		PublishedAt:     v.PublishedAt.Format(time.RFC3339),
		ViewCount:       v.ViewCount,
		LikeCount:       v.LikeCount,
		CommentCount:    v.CommentCount,
		Frozen:          v.Frozen,
	}
}

// GrowthResponse represents a video's live growth summary.
type GrowthResponse struct {
	VideoID       string   `json:"video_id"`
	SnapshotCount int      `json:"snapshot_count"`
	LatestViews   int64    `json:"latest_views"`
	GrowthRate    *float64 `json:"growth_rate,omitempty"`
	Momentum      float64  `json:"momentum"`
	Tier          string   `json:"tier"`
	AnomalyCount  int      `json:"anomaly_count"`
}

// FromGrowthSummary converts domain.GrowthSummary to GrowthResponse.
func FromGrowthSummary(g *domain.GrowthSummary) GrowthResponse {
	return GrowthResponse{
		VideoID:       g.VideoID,
		SnapshotCount: g.SnapshotCount,
		LatestViews:   g.LatestViews,
		GrowthRate:    g.GrowthRate,
		Momentum:      g.Momentum,
		Tier:          string(g.Tier),
		AnomalyCount:  g.AnomalyCount,
	}
}

// SnapshotResponse represents one point of a video's snapshot series.
type SnapshotResponse struct {
	CapturedAt          string   `json:"captured_at"`
	ViewCount           int64    `json:"view_count"`
	LikeCount           int64    `json:"like_count"`
	CommentCount        int64    `json:"comment_count"`
	ViewsSinceLast      *int64   `json:"views_since_last,omitempty"`
	ViewGrowthRate      *float64 `json:"view_growth_rate,omitempty"`
	HoursSincePublished float64  `json:"hours_since_published"`
	EngagementRate      float64  `json:"engagement_rate"`
	IsAnomaly           bool     `json:"is_anomaly"`
}

// SnapshotSeriesResponse is a video's full snapshot series, oldest first.
type SnapshotSeriesResponse struct {
	VideoID   string             `json:"video_id"`
	Snapshots []SnapshotResponse `json:"snapshots"`
}

// FromSnapshots converts a domain snapshot series to the response form.
func FromSnapshots(videoID string, series []*domain.Snapshot) SnapshotSeriesResponse {
	snapshots := make([]SnapshotResponse, len(series))
	for i, s := range series {
		snapshots[i] = SnapshotResponse{
			CapturedAt:          s.CapturedAt.Format(time.RFC3339),
			ViewCount:           s.ViewCount,
			LikeCount:           s.LikeCount,
			CommentCount:        s.CommentCount,
			ViewsSinceLast:      s.ViewsSinceLast,
			ViewGrowthRate:      s.ViewGrowthRate,
			HoursSincePublished: s.HoursSincePublished,
			EngagementRate:      s.EngagementRate,
			IsAnomaly:           s.IsAnomaly,
		}
	}

	return SnapshotSeriesResponse{VideoID: videoID, Snapshots: snapshots}
}

// PollResponse represents the outcome of one polling cycle.
type PollResponse struct {
	VideosPolled      int    `json:"videos_polled"`
	SnapshotsAppended int    `json:"snapshots_appended"`
	AnomaliesFlagged  int    `json:"anomalies_flagged"`
	VideosFailed      int    `json:"videos_failed"`
	Duration          string `json:"duration"`
}

// FromPollResult converts service.PollResult to PollResponse.
func FromPollResult(r *service.PollResult) PollResponse {
	return PollResponse{
		VideosPolled:      r.VideosPolled,
		SnapshotsAppended: r.SnapshotsAppended,
		AnomaliesFlagged:  r.AnomaliesFlagged,
		VideosFailed:      r.VideosFailed,
		Duration:          r.Duration.String(),
	}
}

// ModelReportResponse summarizes one model's training outcome.
type ModelReportResponse struct {
	Type    string  `json:"type"`
	Version string  `json:"version"`
	Samples int     `json:"samples"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
	R2      float64 `json:"r2"`
}

// TrainingResponse represents the outcome of one training run.
type TrainingResponse struct {
	StartedAt      string               `json:"started_at"`
	Duration       string               `json:"duration"`
	CandidateCount int                  `json:"candidate_count"`
	SampleCount    int                  `json:"sample_count"`
	SkippedCount   int                  `json:"skipped_count"`
	ShortForm      *ModelReportResponse `json:"short_form,omitempty"`
	LongForm       *ModelReportResponse `json:"long_form,omitempty"`
}

// FromTrainingReport converts service.TrainingReport to TrainingResponse.
func FromTrainingReport(r *service.TrainingReport) TrainingResponse {
	return TrainingResponse{
		StartedAt:      r.StartedAt.Format(time.RFC3339),
		Duration:       r.Duration.String(),
		CandidateCount: r.CandidateCount,
		SampleCount:    r.SampleCount,
		SkippedCount:   r.SkippedCount,
		ShortForm:      fromModelReport(r.ShortForm),
		LongForm:       fromModelReport(r.LongForm),
	}
}

func fromModelReport(r *service.ModelReport) *ModelReportResponse {
	if r == nil {
		return nil
	}

	resp := &ModelReportResponse{
		Type:    string(r.Type),
		Version: r.Version,
		Samples: r.Samples,
	}
	if r.Evaluation != nil && r.Evaluation.Metrics != nil {
		resp.MAE = r.Evaluation.Metrics.MAE
		resp.RMSE = r.Evaluation.Metrics.RMSE
		resp.R2 = r.Evaluation.Metrics.R2
	}

	return resp
}

// ModelInfoResponse is the monitoring view of one serving model.
type ModelInfoResponse struct {
	Type      string `json:"type"`
	Version   string `json:"version"`
	Trained   bool   `json:"trained"`
	Samples   int    `json:"samples"`
	UpdatedAt string `json:"updated_at"`
}

// FromModelInfo converts the serving set's info to the response form.
func FromModelInfo(infos []service.ModelInfo) []ModelInfoResponse {
	out := make([]ModelInfoResponse, len(infos))
	for i, info := range infos {
		out[i] = ModelInfoResponse{
			Type:      string(info.Type),
			Version:   info.Version,
			Trained:   info.Trained,
			Samples:   info.Metrics.Samples,
			UpdatedAt: info.UpdatedAt.Format(time.RFC3339),
		}
	}

	return out
}

// ArtifactResponse is the metadata view of one stored model artifact.
type ArtifactResponse struct {
	ModelType    string  `json:"model_type"`
	Version      string  `json:"version"`
	TrainedAt    string  `json:"trained_at"`
	FeatureCount int     `json:"feature_count"`
	Samples      int     `json:"samples"`
	ValidationR2 float64 `json:"validation_r2"`
}

// FromArtifact converts model.Artifact metadata to ArtifactResponse.
func FromArtifact(a *model.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ModelType:    string(a.ModelType),
		Version:      a.Version,
		TrainedAt:    a.TrainedAt.Format(time.RFC3339),
		FeatureCount: len(a.FeatureNames),
		Samples:      a.Metrics.Samples,
		ValidationR2: a.Metrics.ValidationR2,
	}
}

// FromArtifacts converts a slice of artifacts to the response form.
func FromArtifacts(artifacts []*model.Artifact) []ArtifactResponse {
	out := make([]ArtifactResponse, len(artifacts))
	for i, a := range artifacts {
		out[i] = FromArtifact(a)
	}

	return out
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
