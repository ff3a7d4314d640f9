package artifact

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	return store
}

func testArtifact(modelType domain.ModelType, version string, trainedAt time.Time) *model.Artifact {
	return &model.Artifact{
		Version:      version,
		ModelType:    modelType,
		FeatureNames: []string{"log_subscriber_count", "duration_seconds"},
		Metrics:      model.TrainingMetrics{Samples: 120, TrainMAE: 412.5},
		TrainedAt:    trainedAt,
		Blob:         []byte("booster-bytes-" + version),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	saved := testArtifact(domain.ModelTypeShortForm, "v1", time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx, domain.ModelTypeShortForm, "v1")
	require.NoError(t, err)
	assert.Equal(t, saved.Version, loaded.Version)
	assert.Equal(t, saved.ModelType, loaded.ModelType)
	assert.Equal(t, saved.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, saved.Metrics, loaded.Metrics)
	assert.True(t, saved.TrainedAt.Equal(loaded.TrainedAt))
	assert.Equal(t, saved.Blob, loaded.Blob)
}

func TestDelete_RemovesArtifact(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older := testArtifact(domain.ModelTypeShortForm, "v1", time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	newer := testArtifact(domain.ModelTypeShortForm, "v2", time.Date(2025, 7, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	require.NoError(t, store.Delete(ctx, domain.ModelTypeShortForm, "v2"))

	_, err := store.Load(ctx, domain.ModelTypeShortForm, "v2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Latest falls back to the surviving version.
	latest, err := store.Latest(ctx, domain.ModelTypeShortForm)
	require.NoError(t, err)
	assert.Equal(t, "v1", latest.Version)
}

func TestDelete_MissingVersionIsNoError(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Delete(context.Background(), domain.ModelTypeLongForm, "never-saved"))
}

func TestSave_Invalid(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var verr *domain.ValidationError
	require.ErrorAs(t, store.Save(ctx, nil), &verr)

	missing := testArtifact(domain.ModelTypeShortForm, "", time.Now())
	require.ErrorAs(t, store.Save(ctx, missing), &verr)
}

func TestLoad_Missing(t *testing.T) {
	store := setupStore(t)

	_, err := store.Load(context.Background(), domain.ModelTypeShortForm, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLatest_EmptyStore(t *testing.T) {
	store := setupStore(t)

	_, err := store.Latest(context.Background(), domain.ModelTypeLongForm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLatest_PicksNewestByTrainedAt(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	// Saved out of order on purpose.
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeLongForm, "v2", base.Add(48*time.Hour))))
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeLongForm, "v3", base.Add(72*time.Hour))))
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeLongForm, "v1", base.Add(24*time.Hour))))

	latest, err := store.Latest(ctx, domain.ModelTypeLongForm)
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Version)
	assert.NotEmpty(t, latest.Blob)
}

func TestLatest_IsolatedPerType(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeShortForm, "short-v1", time.Now().UTC())))

	_, err := store.Latest(ctx, domain.ModelTypeLongForm)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_NewestFirstAcrossTypes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeShortForm, "s1", base.Add(1*time.Hour))))
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeLongForm, "l1", base.Add(3*time.Hour))))
	require.NoError(t, store.Save(ctx, testArtifact(domain.ModelTypeShortForm, "s2", base.Add(2*time.Hour))))

	artifacts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)
	assert.Equal(t, "l1", artifacts[0].Version)
	assert.Equal(t, "s2", artifacts[1].Version)
	assert.Equal(t, "s1", artifacts[2].Version)
}

func TestList_EmptyStore(t *testing.T) {
	store := setupStore(t)

	artifacts, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestSave_OverwritesSameVersion(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := testArtifact(domain.ModelTypeShortForm, "v1", time.Now().UTC())
	require.NoError(t, store.Save(ctx, first))

	second := testArtifact(domain.ModelTypeShortForm, "v1", time.Now().UTC())
	second.Blob = []byte("retrained")
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, domain.ModelTypeShortForm, "v1")
	require.NoError(t, err)
	assert.Equal(t, []byte("retrained"), loaded.Blob)
}

func TestWriteFeatureTable(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	header := []string{"log_subscriber_count", "duration_seconds", "target_views_7d"}
	rows := [][]float64{
		{11.5, 45, 12000},
		{9.2, 600, 800.5},
	}
	require.NoError(t, store.WriteFeatureTable(context.Background(), "training_20250701T120000Z", header, rows))

	f, err := os.Open(filepath.Join(dir, "features", "training_20250701T120000Z.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"11.5", "45", "12000"}, records[1])
	assert.Equal(t, []string{"9.2", "600", "800.5"}, records[2])
}

func TestWriteFeatureTable_RowWidthMismatch(t *testing.T) {
	store := setupStore(t)

	err := store.WriteFeatureTable(context.Background(), "bad", []string{"a", "b"}, [][]float64{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestWriteFeatureTable_EmptyName(t *testing.T) {
	store := setupStore(t)

	var verr *domain.ValidationError
	require.ErrorAs(t, store.WriteFeatureTable(context.Background(), "", []string{"a"}, nil), &verr)
}
