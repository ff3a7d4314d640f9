package model

import (
	"math"

	"view-forecast-service/internal/domain"
)

// Long-form videos keep accumulating views through search and
// recommendations well past the first week, so the curve keeps growing
// out to the 90-day horizon.
var longFormCurve = extrapolationCurve{
	{MaxDays: 1, Multiplier: 0.4},
	{MaxDays: 3, Multiplier: 0.7},
	{MaxDays: 7, Multiplier: 1.0},
	{MaxDays: 30, Multiplier: 1.4},
	{MaxDays: 90, Multiplier: 1.8},
	{MaxDays: math.MaxInt, Multiplier: 2.0},
}

const (
	longFormBaseConfidence  = 0.75
	longFormCompletenessMax = 0.15
)

// LongFormModel forecasts views for videos longer than 60 seconds.
type LongFormModel struct {
	baseModel
}

// NewLongForm creates a long-form model. An un-Trained model serves the
// default untrained fallback: fixed feature schema, zeroed metrics,
// predictions at heavily discounted confidence.
func NewLongForm(cfg Config) *LongFormModel {
	return &LongFormModel{
		baseModel: newBaseModel(
			domain.ModelTypeLongForm,
			longFormCurve,
			longFormBaseConfidence,
			longFormCompletenessMax,
			cfg,
		),
	}
}

// New creates the Predictor for the given video type.
// Unsupported types are a ConfigurationError.
func New(modelType domain.ModelType, cfg Config) (Predictor, error) {
	switch modelType {
	case domain.ModelTypeShortForm:
		return NewShortForm(cfg), nil
	case domain.ModelTypeLongForm:
		return NewLongForm(cfg), nil
	default:
		return nil, &domain.ConfigurationError{Reason: "unsupported video type: " + string(modelType)}
	}
}

// NewDefault returns the documented untrained fallback for a video type.
// It never fails: unknown types fall back to long-form.
func NewDefault(modelType domain.ModelType) Predictor {
	p, err := New(modelType, Config{})
	if err != nil {
		return NewLongForm(Config{})
	}

	return p
}
