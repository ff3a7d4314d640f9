// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/model"
)

// ArtifactStore persists trained model artifacts and training-run
// feature tables.
// Implementations: internal/infra/artifact/store.go
type ArtifactStore interface {
	// Save persists one artifact under its model type and version.
	Save(ctx context.Context, artifact *model.Artifact) error

	// Load retrieves a specific artifact version.
	Load(ctx context.Context, modelType domain.ModelType, version string) (*model.Artifact, error)

	// Latest retrieves the most recently trained artifact for a type.
	// Returns domain.ErrNotFound when none has been saved yet.
	Latest(ctx context.Context, modelType domain.ModelType) (*model.Artifact, error)

	// Delete removes one stored artifact version. Deleting a version
	// that does not exist is not an error, so rollbacks are idempotent.
	Delete(ctx context.Context, modelType domain.ModelType, version string) error

	// List returns the metadata of every stored artifact, newest first.
	List(ctx context.Context) ([]*model.Artifact, error)

	// WriteFeatureTable persists one training run's flat feature table.
	WriteFeatureTable(ctx context.Context, name string, header []string, rows [][]float64) error
}

// ModelInfo is the monitoring view of one serving model.
type ModelInfo struct {
	Type      domain.ModelType      `json:"type"`
	Version   string                `json:"version"`
	Trained   bool                  `json:"trained"`
	Metrics   model.TrainingMetrics `json:"metrics"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ModelSet holds the currently serving predictor per video type.
//
// Both models swap together after a successful training run, never one
// at a time, so the serving pair always comes from the same run.
type ModelSet struct {
	mu        sync.RWMutex
	short     model.Predictor
	long      model.Predictor
	updatedAt time.Time
}

// NewModelSet creates a set serving the untrained fallback models.
func NewModelSet() *ModelSet {
	return &ModelSet{
		short:     model.NewDefault(domain.ModelTypeShortForm),
		long:      model.NewDefault(domain.ModelTypeLongForm),
		updatedAt: time.Now().UTC(),
	}
}

// Get returns the serving predictor for a video type. Unknown types get
// the long-form model, matching the routing default.
func (s *ModelSet) Get(modelType domain.ModelType) model.Predictor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if modelType == domain.ModelTypeShortForm {
		return s.short
	}

	return s.long
}

// Swap atomically replaces both serving models.
func (s *ModelSet) Swap(short, long model.Predictor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.short = short
	s.long = long
	s.updatedAt = time.Now().UTC()
}

// Info returns the monitoring view of both serving models.
func (s *ModelSet) Info() []ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ModelInfo, 0, 2)
	for _, p := range []model.Predictor{s.short, s.long} {
		out = append(out, ModelInfo{
			Type:      p.Type(),
			Version:   p.Version(),
			Trained:   p.Trained(),
			Metrics:   p.Metrics(),
			UpdatedAt: s.updatedAt,
		})
	}

	return out
}

// WarmStart loads the latest stored artifacts into the set. Missing,
// unreadable or corrupt artifacts are never fatal: the type keeps its
// untrained fallback so a fresh or degraded deployment still serves
// predictions, and the next training run replaces the bad artifact.
func (s *ModelSet) WarmStart(ctx context.Context, store ArtifactStore, logger *zap.Logger) {
	short := loadLatest(ctx, store, domain.ModelTypeShortForm, logger)
	long := loadLatest(ctx, store, domain.ModelTypeLongForm, logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if short != nil {
		s.short = short
	}
	if long != nil {
		s.long = long
	}
	s.updatedAt = time.Now().UTC()
}

// loadLatest returns the newest usable predictor for a type, or nil when
// the type should keep its fallback.
func loadLatest(ctx context.Context, store ArtifactStore, modelType domain.ModelType, logger *zap.Logger) model.Predictor {
	artifact, err := store.Latest(ctx, modelType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("no stored artifact, keeping default model",
				zap.String("model_type", string(modelType)),
			)
		} else {
			logger.Warn("reading stored artifact failed, keeping default model",
				zap.String("model_type", string(modelType)),
				zap.Error(err),
			)
		}
		return nil
	}

	p, err := model.FromArtifact(artifact)
	if err != nil {
		logger.Warn("stored artifact is unusable, keeping default model",
			zap.String("model_type", string(modelType)),
			zap.String("version", artifact.Version),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("loaded model artifact",
		zap.String("model_type", string(modelType)),
		zap.String("version", p.Version()),
	)

	return p
}
