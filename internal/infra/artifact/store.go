// Package artifact implements filesystem persistence for trained models.
package artifact

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/model"
)

const (
	blobExt    = ".bin"
	sidecarExt = ".json"

	featureTableDir = "features"
)

// Store persists model artifacts under a root directory. Each artifact
// is two files in a per-type subdirectory: a gob booster blob and a JSON
// metadata sidecar sharing the version as filename. Feature tables go to
// a features/ subdirectory as CSV.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, featureTableDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}

	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the artifact's blob and metadata sidecar. Writes go to
// temp files first so a crash mid-write never leaves a torn artifact.
func (s *Store) Save(_ context.Context, artifact *model.Artifact) error {
	if artifact == nil {
		return &domain.ValidationError{Field: "artifact", Reason: "artifact is required"}
	}
	if artifact.Version == "" {
		return &domain.ValidationError{Field: "version", Reason: "version is required"}
	}

	typeDir := filepath.Join(s.dir, string(artifact.ModelType))
	if err := os.MkdirAll(typeDir, 0o755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	meta, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact metadata: %w", err)
	}

	base := filepath.Join(typeDir, artifact.Version)
	if err := writeAtomic(base+blobExt, artifact.Blob); err != nil {
		return fmt.Errorf("writing artifact blob: %w", err)
	}
	if err := writeAtomic(base+sidecarExt, meta); err != nil {
		return fmt.Errorf("writing artifact metadata: %w", err)
	}

	s.logger.Info("artifact saved",
		zap.String("model_type", string(artifact.ModelType)),
		zap.String("version", artifact.Version),
		zap.Int("blob_bytes", len(artifact.Blob)),
	)

	return nil
}

// Load retrieves a specific artifact version.
func (s *Store) Load(_ context.Context, modelType domain.ModelType, version string) (*model.Artifact, error) {
	return s.read(filepath.Join(s.dir, string(modelType), version))
}

// Delete removes one artifact's blob and sidecar. The sidecar goes
// first: a delete interrupted halfway leaves nothing loadable. A missing
// version is not an error.
func (s *Store) Delete(_ context.Context, modelType domain.ModelType, version string) error {
	base := filepath.Join(s.dir, string(modelType), version)

	for _, path := range []string{base + sidecarExt, base + blobExt} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting artifact: %w", err)
		}
	}

	s.logger.Info("artifact deleted",
		zap.String("model_type", string(modelType)),
		zap.String("version", version),
	)

	return nil
}

// Latest retrieves the most recently trained artifact for a type.
// Returns domain.ErrNotFound when none has been saved yet.
func (s *Store) Latest(ctx context.Context, modelType domain.ModelType) (*model.Artifact, error) {
	artifacts, err := s.listType(ctx, modelType)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("latest %s artifact: %w", modelType, domain.ErrNotFound)
	}

	return s.read(filepath.Join(s.dir, string(artifacts[0].ModelType), artifacts[0].Version))
}

// List returns the metadata of every stored artifact, newest first.
// Blobs are not loaded; use Load for a full artifact.
func (s *Store) List(ctx context.Context) ([]*model.Artifact, error) {
	var all []*model.Artifact
	for _, modelType := range []domain.ModelType{domain.ModelTypeShortForm, domain.ModelTypeLongForm} {
		artifacts, err := s.listType(ctx, modelType)
		if err != nil {
			return nil, err
		}
		all = append(all, artifacts...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].TrainedAt.After(all[j].TrainedAt)
	})

	return all, nil
}

// WriteFeatureTable persists one training run's flat feature table as
// CSV under features/.
func (s *Store) WriteFeatureTable(_ context.Context, name string, header []string, rows [][]float64) error {
	if name == "" {
		return &domain.ValidationError{Field: "name", Reason: "table name is required"}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing feature table header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("feature table row has %d columns, header has %d", len(row), len(header))
		}
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing feature table row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing feature table: %w", err)
	}

	path := filepath.Join(s.dir, featureTableDir, name+".csv")
	if err := writeAtomic(path, []byte(buf.String())); err != nil {
		return fmt.Errorf("writing feature table: %w", err)
	}

	s.logger.Info("feature table written",
		zap.String("name", name),
		zap.Int("rows", len(rows)),
	)

	return nil
}

// listType reads every sidecar for one model type, newest first.
func (s *Store) listType(_ context.Context, modelType domain.ModelType) ([]*model.Artifact, error) {
	typeDir := filepath.Join(s.dir, string(modelType))

	entries, err := os.ReadDir(typeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s artifacts: %w", modelType, err)
	}

	var artifacts []*model.Artifact
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != sidecarExt {
			continue
		}

		data, err := os.ReadFile(filepath.Join(typeDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading artifact metadata: %w", err)
		}

		var artifact model.Artifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			s.logger.Warn("skipping unreadable artifact sidecar",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		artifacts = append(artifacts, &artifact)
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].TrainedAt.After(artifacts[j].TrainedAt)
	})

	return artifacts, nil
}

// read loads one artifact's sidecar and blob from their shared base path.
func (s *Store) read(base string) (*model.Artifact, error) {
	meta, err := os.ReadFile(base + sidecarExt)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", filepath.Base(base), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading artifact metadata: %w", err)
	}

	var artifact model.Artifact
	if err := json.Unmarshal(meta, &artifact); err != nil {
		return nil, fmt.Errorf("decoding artifact metadata: %w", err)
	}

	blob, err := os.ReadFile(base + blobExt)
	if err != nil {
		return nil, fmt.Errorf("reading artifact blob: %w", err)
	}
	artifact.Blob = blob

	return &artifact, nil
}

// writeAtomic writes data via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
