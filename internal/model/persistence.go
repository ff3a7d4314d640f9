package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"view-forecast-service/internal/domain"
)

// Artifact is the persistable form of a trained model: a binary booster
// blob plus JSON-sidecar metadata. The artifact store writes the two
// parts to separate files; Blob is excluded from the sidecar.
type Artifact struct {
	Version      string           `json:"version"`
	ModelType    domain.ModelType `json:"model_type"`
	FeatureNames []string         `json:"feature_names"`
	Metrics      TrainingMetrics  `json:"training_metrics"`
	TrainedAt    time.Time        `json:"trained_at"`
	Booster      BoosterConfig    `json:"booster_config"`

	Blob []byte `json:"-"`
}

// Export serializes the model into an artifact. Exporting an untrained
// model is allowed; its blob decodes back into the default fallback.
func (m *baseModel) Export() (*Artifact, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.booster); err != nil {
		return nil, fmt.Errorf("encoding booster: %w", err)
	}

	return &Artifact{
		Version:      m.version,
		ModelType:    m.modelType,
		FeatureNames: append([]string(nil), m.schema...),
		Metrics:      m.metrics,
		TrainedAt:    m.trainedAt,
		Booster:      m.cfg.Booster,
		Blob:         buf.Bytes(),
	}, nil
}

// FromArtifact reconstructs a Predictor from a stored artifact.
// Loading reproduces the exact trained state: predictions on the same
// feature vector are identical before and after a save/load round trip.
func FromArtifact(a *Artifact) (Predictor, error) {
	if a == nil {
		return nil, &domain.ValidationError{Field: "artifact", Reason: "artifact is required"}
	}

	p, err := New(a.ModelType, Config{Booster: a.Booster})
	if err != nil {
		return nil, err
	}

	var booster Booster
	if err := gob.NewDecoder(bytes.NewReader(a.Blob)).Decode(&booster); err != nil {
		return nil, fmt.Errorf("decoding booster: %w", err)
	}

	base := baseOf(p)
	base.booster = &booster
	base.version = a.Version
	base.metrics = a.Metrics
	base.trainedAt = a.TrainedAt
	if len(a.FeatureNames) > 0 {
		base.schema = append([]string(nil), a.FeatureNames...)
	}

	return p, nil
}

func baseOf(p Predictor) *baseModel {
	switch m := p.(type) {
	case *ShortFormModel:
		return &m.baseModel
	case *LongFormModel:
		return &m.baseModel
	default:
		return nil
	}
}
