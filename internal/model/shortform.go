package model

import (
	"math"

	"view-forecast-service/internal/domain"
)

// Short-form videos front-load their views: most of the lifetime total
// arrives in the first week, so the curve saturates quickly after the
// 7-day base horizon.
var shortFormCurve = extrapolationCurve{
	{MaxDays: 1, Multiplier: 0.6},
	{MaxDays: 3, Multiplier: 0.8},
	{MaxDays: 7, Multiplier: 1.0},
	{MaxDays: 30, Multiplier: 1.2},
	{MaxDays: math.MaxInt, Multiplier: 1.3},
}

const (
	shortFormBaseConfidence  = 0.70
	shortFormCompletenessMax = 0.20
)

// ShortFormModel forecasts views for videos of at most 60 seconds.
type ShortFormModel struct {
	baseModel
}

// NewShortForm creates a short-form model. An un-Trained model serves the
// default untrained fallback: fixed feature schema, zeroed metrics,
// predictions at heavily discounted confidence.
func NewShortForm(cfg Config) *ShortFormModel {
	return &ShortFormModel{
		baseModel: newBaseModel(
			domain.ModelTypeShortForm,
			shortFormCurve,
			shortFormBaseConfidence,
			shortFormCompletenessMax,
			cfg,
		),
	}
}
