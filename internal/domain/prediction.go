package domain

import "time"

// ModelType identifies which specialized model produced a prediction.
type ModelType string

const (
	ModelTypeShortForm ModelType = "short_form"
	ModelTypeLongForm  ModelType = "long_form"
)

// ModelTypeFor routes a video to its specialized model.
func ModelTypeFor(v *VideoRecord) ModelType {
	if v.IsShort() {
		return ModelTypeShortForm
	}

	return ModelTypeLongForm
}

// StandardTimeframes are the forecast horizons served by default, in days.
var StandardTimeframes = []int{1, 3, 7, 30, 90}

// PredictionResult is one forecast for one video at one horizon.
//
// PredictedViews is a non-negative integer; Confidence is in [0.1, 1.0].
// For a fixed feature vector, predictions are monotonically non-decreasing
// in TimeframeDays (enforced by the extrapolation curve).
type PredictionResult struct {
	VideoID        string    `json:"video_id"`
	TimeframeDays  int       `json:"timeframe_days"`
	PredictedViews int64     `json:"predicted_views"`
	Confidence     float64   `json:"confidence"`
	ModelType      ModelType `json:"model_type"`
	ModelVersion   string    `json:"model_version"`
	PredictedAt    time.Time `json:"predicted_at"`

	Warnings []DataQualityWarning `json:"warnings,omitempty"`
}

// GrowthSummary is the live monitoring view of one video's snapshot series.
type GrowthSummary struct {
	VideoID       string          `json:"video_id"`
	SnapshotCount int             `json:"snapshot_count"`
	LatestViews   int64           `json:"latest_views"`
	GrowthRate    *float64        `json:"growth_rate,omitempty"` // latest views/hour
	Momentum      float64         `json:"momentum"`
	Tier          PerformanceTier `json:"tier"`
	AnomalyCount  int             `json:"anomaly_count"`
}
