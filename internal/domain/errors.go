package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for an entity that does not exist. Callers
// match it with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing required input fields.
// It is always surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a run that cannot proceed, such as
// insufficient training data or an unsupported video type.
// It is fatal to the run that raised it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// DataQualityWarning annotates suspect data (anomalous snapshots, low
// feature completeness). Warnings are metadata, not errors: they never
// block processing.
type DataQualityWarning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Warning codes.
const (
	WarnAnomalousSnapshot   = "anomalous_snapshot"
	WarnLowFeatureCoverage  = "low_feature_coverage"
	WarnInsufficientHistory = "insufficient_history"
)
