// Package model implements the per-video-type view forecasting models.
//
// Short-form and long-form videos each get their own Predictor with
// distinct hyperparameters and timeframe extrapolation curves, behind one
// shared contract. The trained target is always the 7-day cumulative view
// count; every other horizon is derived from it by a fixed multiplier
// curve, never trained independently.
package model

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/eval"
	"view-forecast-service/internal/features"
)

// BaseTimeframeDays is the horizon the models are trained against.
const BaseTimeframeDays = 7

// DefaultVersion marks the untrained fallback model.
const DefaultVersion = "default"

// Confidence policy constants.
const (
	minConfidence = 0.1
	maxConfidence = 1.0

	// Predictions outside this plausible band are penalized.
	extremeHighPrediction = 1e8
	extremeLowPrediction  = 10

	extremeHighPenalty = 0.15
	extremeLowPenalty  = 0.10

	// The untrained fallback model still serves predictions, at a
	// heavy confidence discount.
	untrainedPenalty = 0.40
)

// Sample is one training/evaluation row: a feature vector plus the
// realized 7-day view count.
type Sample struct {
	VideoID  string
	Features features.Vector
	Target   float64
}

// TrainingMetrics summarizes one training run.
type TrainingMetrics struct {
	Samples        int     `json:"samples"`
	TrainMAE       float64 `json:"train_mae"`
	TrainRMSE      float64 `json:"train_rmse"`
	ValidationMAE  float64 `json:"validation_mae"`
	ValidationRMSE float64 `json:"validation_rmse"`
	ValidationR2   float64 `json:"validation_r2"`
}

// Config holds one model's training configuration.
type Config struct {
	Booster            BoosterConfig
	MinTrainingSamples int
}

// DefaultMinTrainingSamples applies when Config leaves the floor unset.
const DefaultMinTrainingSamples = 50

// Predictor is the shared contract of the specialized models.
// A Predictor is immutable between Train calls; Predict and PredictBatch
// are safe for concurrent use on a trained (or default) model.
type Predictor interface {
	// Type returns which video population the model serves.
	Type() domain.ModelType

	// Version identifies the trained artifact (DefaultVersion when untrained).
	Version() string

	// Trained reports whether a fitted ensemble backs predictions.
	Trained() bool

	// Train fits the model on the samples. Validation samples, when
	// present, produce held-out metrics. Returns a ConfigurationError
	// when there are fewer samples than the configured minimum.
	Train(samples, validation []Sample) (*TrainingMetrics, error)

	// Predict forecasts cumulative views at the given horizon.
	// A vector with zero valid cells is a ValidationError; anything
	// else degrades to neutral fills.
	Predict(videoID string, vec features.Vector, timeframeDays int) (*domain.PredictionResult, error)

	// PredictBatch forecasts many independent vectors, preserving order.
	PredictBatch(reqs []BatchRequest, timeframeDays int) ([]*domain.PredictionResult, error)

	// Evaluate scores the model on held-out samples at the base horizon.
	Evaluate(samples []Sample) (*eval.Metrics, error)

	// FeatureImportance returns normalized split-gain totals per feature.
	FeatureImportance() map[string]float64

	// Metrics returns the metrics of the last training run.
	Metrics() TrainingMetrics

	// Export serializes the model into a persistable artifact.
	Export() (*Artifact, error)
}

// BatchRequest is one entry of a PredictBatch call.
type BatchRequest struct {
	VideoID  string
	Features features.Vector
}

// curvePoint maps horizons up to MaxDays to a multiplier of the 7-day
// base prediction.
type curvePoint struct {
	MaxDays    int
	Multiplier float64
}

// extrapolationCurve is a fixed, hand-tuned policy table. The multipliers
// are preserved exactly for behavioral parity with the tuned system and
// are non-decreasing in MaxDays, which is what makes predictions
// monotonic across horizons.
type extrapolationCurve []curvePoint

func (c extrapolationCurve) multiplier(days int) float64 {
	for _, p := range c {
		if days <= p.MaxDays {
			return p.Multiplier
		}
	}

	return c[len(c)-1].Multiplier
}

// baseModel carries everything shared between the two specializations.
type baseModel struct {
	modelType            domain.ModelType
	curve                extrapolationCurve
	baseConfidence       float64
	completenessBonusMax float64

	cfg     Config
	schema  []string
	booster *Booster
	version string
	metrics TrainingMetrics

	trainedAt time.Time
}

func newBaseModel(modelType domain.ModelType, curve extrapolationCurve, baseConf, bonusMax float64, cfg Config) baseModel {
	if cfg.MinTrainingSamples <= 0 {
		cfg.MinTrainingSamples = DefaultMinTrainingSamples
	}

	return baseModel{
		modelType:            modelType,
		curve:                curve,
		baseConfidence:       baseConf,
		completenessBonusMax: bonusMax,
		cfg:                  cfg,
		schema:               features.FeatureNames(),
		booster:              &Booster{},
		version:              DefaultVersion,
	}
}

func (m *baseModel) Type() domain.ModelType { return m.modelType }
func (m *baseModel) Version() string        { return m.version }
func (m *baseModel) Trained() bool          { return m.booster.Trained() }
func (m *baseModel) Metrics() TrainingMetrics {
	return m.metrics
}

// Train fits the booster against the 7-day target.
func (m *baseModel) Train(samples, validation []Sample) (*TrainingMetrics, error) {
	if len(samples) < m.cfg.MinTrainingSamples {
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("%s model needs at least %d training samples, got %d",
				m.modelType, m.cfg.MinTrainingSamples, len(samples)),
		}
	}

	x, y := m.matrix(samples)
	m.booster = FitBooster(x, y, m.cfg.Booster)
	m.version = uuid.NewString()
	m.trainedAt = time.Now().UTC()

	metrics := TrainingMetrics{Samples: len(samples)}

	trainPred := make([]float64, len(samples))
	for i, row := range x {
		trainPred[i] = clampNonNegative(m.booster.Predict(row))
	}
	if em, err := eval.EvaluatePredictions(y, trainPred); err == nil {
		metrics.TrainMAE = em.MAE
		metrics.TrainRMSE = em.RMSE
	}

	if len(validation) > 0 {
		vx, vy := m.matrix(validation)
		valPred := make([]float64, len(validation))
		for i, row := range vx {
			valPred[i] = clampNonNegative(m.booster.Predict(row))
		}
		if em, err := eval.EvaluatePredictions(vy, valPred); err == nil {
			metrics.ValidationMAE = em.MAE
			metrics.ValidationRMSE = em.RMSE
			metrics.ValidationR2 = em.R2
		}
	}

	m.metrics = metrics

	return &metrics, nil
}

// Predict forecasts cumulative views at the given horizon by scaling the
// 7-day base prediction through the extrapolation curve.
func (m *baseModel) Predict(videoID string, vec features.Vector, timeframeDays int) (*domain.PredictionResult, error) {
	if timeframeDays <= 0 {
		return nil, &domain.ValidationError{Field: "timeframe_days", Reason: "timeframe must be positive"}
	}

	row, valid := m.row(vec)
	if valid == 0 {
		return nil, &domain.ValidationError{Field: "features", Reason: "feature vector has no valid features"}
	}

	base := 0.0
	if m.booster.Trained() {
		base = clampNonNegative(m.booster.Predict(row))
	}

	predicted := base * m.curve.multiplier(timeframeDays)
	completeness := float64(valid) / float64(len(m.schema))

	result := &domain.PredictionResult{
		VideoID:        videoID,
		TimeframeDays:  timeframeDays,
		PredictedViews: int64(math.Round(predicted)),
		Confidence:     m.confidence(completeness, predicted),
		ModelType:      m.modelType,
		ModelVersion:   m.version,
		PredictedAt:    time.Now().UTC(),
	}

	if completeness < 0.5 {
		result.Warnings = append(result.Warnings, domain.DataQualityWarning{
			Code:   domain.WarnLowFeatureCoverage,
			Detail: fmt.Sprintf("only %d of %d features present", valid, len(m.schema)),
		})
	}
	if !m.booster.Trained() {
		result.Warnings = append(result.Warnings, domain.DataQualityWarning{
			Code:   domain.WarnInsufficientHistory,
			Detail: "no trained artifact available, serving default model",
		})
	}

	return result, nil
}

// PredictBatch fans independent rows out across a bounded worker pool.
// The model is read-only during prediction, so workers share no mutable
// state; results keep request order.
func (m *baseModel) PredictBatch(reqs []BatchRequest, timeframeDays int) ([]*domain.PredictionResult, error) {
	results := make([]*domain.PredictionResult, len(reqs))
	errs := make([]error, len(reqs))

	workers := runtime.NumCPU()
	if workers > len(reqs) {
		workers = len(reqs)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = m.Predict(reqs[i].VideoID, reqs[i].Features, timeframeDays)
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Evaluate scores the model on held-out samples at the base horizon.
func (m *baseModel) Evaluate(samples []Sample) (*eval.Metrics, error) {
	if len(samples) == 0 {
		return nil, &domain.ValidationError{Field: "samples", Reason: "no evaluation samples"}
	}

	actual := make([]float64, len(samples))
	predicted := make([]float64, len(samples))
	for i, s := range samples {
		res, err := m.Predict(s.VideoID, s.Features, BaseTimeframeDays)
		if err != nil {
			return nil, err
		}
		actual[i] = s.Target
		predicted[i] = float64(res.PredictedViews)
	}

	return eval.EvaluatePredictions(actual, predicted)
}

// FeatureImportance returns each feature's share of total split gain.
func (m *baseModel) FeatureImportance() map[string]float64 {
	out := make(map[string]float64, len(m.schema))

	var total float64
	for _, g := range m.booster.Gains {
		total += g
	}

	for i, name := range m.schema {
		if i >= len(m.booster.Gains) {
			break
		}
		if total > 0 {
			out[name] = m.booster.Gains[i] / total
		} else {
			out[name] = 0
		}
	}

	return out
}

// confidence applies the fixed scoring policy:
// base + completeness bonus - extreme-prediction penalty, clamped.
func (m *baseModel) confidence(completeness, predicted float64) float64 {
	c := m.baseConfidence + m.completenessBonusMax*completeness

	switch {
	case predicted > extremeHighPrediction:
		c -= extremeHighPenalty
	case predicted < extremeLowPrediction:
		c -= extremeLowPenalty
	}

	if !m.booster.Trained() {
		c -= untrainedPenalty
	}

	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}

	return c
}

// row projects a feature vector onto the fixed schema. The second return
// is the number of valid (present and finite) cells; absent cells fill
// with zero.
func (m *baseModel) row(vec features.Vector) ([]float64, int) {
	row := make([]float64, len(m.schema))

	var valid int
	for i, name := range m.schema {
		val, ok := vec[name]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		row[i] = val
		valid++
	}

	return row, valid
}

func (m *baseModel) matrix(samples []Sample) ([][]float64, []float64) {
	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i], _ = m.row(s.Features)
		y[i] = s.Target
	}

	return x, y
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}

	return v
}
