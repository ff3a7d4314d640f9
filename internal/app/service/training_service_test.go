package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/features"
	"view-forecast-service/internal/model"
)

func newTrainingFixture(cfg TrainingConfig) (*TrainingService, *memVideoRepo, *memChannelRepo, *memSnapshotRepo, *memArtifactStore, *ModelSet, *fakeLocker) {
	videos := newMemVideoRepo()
	channels := newMemChannelRepo()
	snapshots := newMemSnapshotRepo()
	store := newMemArtifactStore()
	models := NewModelSet()
	lock := newFakeLocker()

	svc := NewTrainingService(videos, channels, snapshots, store, models, lock, cfg, zap.NewNop())

	return svc, videos, channels, snapshots, store, models, lock
}

// seedTrainingData creates n short-form and n long-form videos, each with
// a snapshot series that brackets the 7-day mark so a target can be
// interpolated.
func seedTrainingData(t *testing.T, videos *memVideoRepo, channels *memChannelRepo, snapshots *memSnapshotRepo, n int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 2*n; i++ {
		duration := 45
		if i >= n {
			duration = 600
		}

		channelID := fmt.Sprintf("c%02d", i%8)
		video := testVideo(fmt.Sprintf("v%03d", i), channelID, duration)
		video.PublishedAt = basePublished.Add(time.Duration(i) * time.Hour)
		require.NoError(t, videos.Upsert(ctx, video))
		require.NoError(t, channels.Upsert(ctx, testChannel(channelID, int64(5_000*(i%8+1)))))

		day7Views := int64(10_000 * (i + 1))
		readings := []domain.Reading{
			{CapturedAt: video.PublishedAt.Add(24 * time.Hour), ViewCount: day7Views / 3},
			{CapturedAt: video.PublishedAt.Add(6 * 24 * time.Hour), ViewCount: day7Views * 9 / 10},
			{CapturedAt: video.PublishedAt.Add(8 * 24 * time.Hour), ViewCount: day7Views * 11 / 10},
		}
		tracker := domain.NewTracker(0, 0)
		series, err := tracker.Enrich(video, readings)
		require.NoError(t, err)
		require.NoError(t, snapshots.Append(ctx, series))
	}
}

func smallTrainingConfig() TrainingConfig {
	modelCfg := model.Config{
		Booster:            model.BoosterConfig{Trees: 20, MaxDepth: 3, Seed: 1},
		MinTrainingSamples: 5,
	}

	return TrainingConfig{
		TrainRatio: 0.8,
		Seed:       42,
		Short:      modelCfg,
		Long:       modelCfg,
	}
}

func TestTrainingService_Run(t *testing.T) {
	svc, videos, channels, snapshots, store, models, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 15)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 30, report.CandidateCount, "candidate count includes both types")
	assert.Equal(t, 30, report.SampleCount)
	assert.Zero(t, report.SkippedCount)

	require.NotNil(t, report.ShortForm)
	require.NotNil(t, report.LongForm)
	assert.Equal(t, 15, report.ShortForm.Samples)
	assert.Equal(t, 15, report.LongForm.Samples)
	assert.NotEqual(t, model.DefaultVersion, report.ShortForm.Version)

	// The held-out evaluation carries metrics plus the importance ranking.
	require.NotNil(t, report.ShortForm.Evaluation)
	require.NotNil(t, report.ShortForm.Evaluation.Metrics)
	assert.Equal(t, report.ShortForm.Version, report.ShortForm.Evaluation.ModelVersion)
	assert.NotEmpty(t, report.ShortForm.Evaluation.Importance)

	// Both serving models swap to the freshly trained versions.
	assert.True(t, models.Get(domain.ModelTypeShortForm).Trained())
	assert.True(t, models.Get(domain.ModelTypeLongForm).Trained())
	assert.Equal(t, report.ShortForm.Version, models.Get(domain.ModelTypeShortForm).Version())

	require.Len(t, store.saved, 2)
	require.Len(t, store.tables, 1)
	for name, header := range store.headers {
		assert.Len(t, header, len(features.FeatureNames())+1, "table %s header", name)
	}
}

func TestTrainingService_Run_LockHeld(t *testing.T) {
	svc, videos, channels, snapshots, _, _, lock := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 10)

	ctx := context.Background()
	acquired, err := lock.Acquire(ctx, trainingLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = svc.Run(ctx)
	assert.ErrorIs(t, err, ErrTrainingInProgress)
}

func TestTrainingService_Run_ReleasesLock(t *testing.T) {
	svc, videos, channels, snapshots, _, _, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 10)

	ctx := context.Background()
	_, err := svc.Run(ctx)
	require.NoError(t, err)

	// The lock must be free again for the next run.
	_, err = svc.Run(ctx)
	require.NoError(t, err)
}

func TestTrainingService_Run_InsufficientData(t *testing.T) {
	svc, videos, channels, snapshots, store, models, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 2)

	_, err := svc.Run(context.Background())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	// A failed run swaps nothing and references no artifacts.
	assert.False(t, models.Get(domain.ModelTypeShortForm).Trained())
	assert.Empty(t, store.saved)
}

func TestTrainingService_Run_SkipsUnlabelableVideos(t *testing.T) {
	svc, videos, channels, snapshots, _, _, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 10)

	ctx := context.Background()
	tracker := domain.NewTracker(0, 0)

	// A video whose series never reaches the 7-day mark yields no target.
	young := testVideo("young", "c0", 45)
	require.NoError(t, videos.Upsert(ctx, young))
	series, err := tracker.Enrich(young, []domain.Reading{
		{CapturedAt: young.PublishedAt.Add(time.Hour), ViewCount: 100},
	})
	require.NoError(t, err)
	require.NoError(t, snapshots.Append(ctx, series))

	// Neither does one whose tracking only began after the 7-day mark:
	// its counts were captured too late to stand in for the label.
	late := testVideo("late0", "c0", 45)
	require.NoError(t, videos.Upsert(ctx, late))
	series, err = tracker.Enrich(late, []domain.Reading{
		{CapturedAt: late.PublishedAt.Add(20 * 24 * time.Hour), ViewCount: 90_000},
		{CapturedAt: late.PublishedAt.Add(21 * 24 * time.Hour), ViewCount: 95_000},
	})
	require.NoError(t, err)
	require.NoError(t, snapshots.Append(ctx, series))

	report, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 22, report.CandidateCount)
	assert.Equal(t, 20, report.SampleCount)
	assert.Equal(t, 2, report.SkippedCount)
}

func TestTrainingService_Run_Deterministic(t *testing.T) {
	cfg := smallTrainingConfig()

	first, videos, channels, snapshots, _, _, _ := newTrainingFixture(cfg)
	seedTrainingData(t, videos, channels, snapshots, 10)
	reportA, err := first.Run(context.Background())
	require.NoError(t, err)

	second, videos2, channels2, snapshots2, _, _, _ := newTrainingFixture(cfg)
	seedTrainingData(t, videos2, channels2, snapshots2, 10)
	reportB, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, reportA.ShortForm.Training.TrainMAE, reportB.ShortForm.Training.TrainMAE,
		"same seed and data must reproduce the same fit")
	assert.Equal(t, reportA.LongForm.Training.ValidationR2, reportB.LongForm.Training.ValidationR2)
}

func TestSevenDayViews(t *testing.T) {
	published := basePublished
	cutoff := published.Add(7 * 24 * time.Hour)

	snap := func(at time.Time, views int64) *domain.Snapshot {
		return &domain.Snapshot{VideoID: "v", CapturedAt: at, ViewCount: views}
	}

	t.Run("interpolates between brackets", func(t *testing.T) {
		series := []*domain.Snapshot{
			snap(published.Add(6*24*time.Hour), 6000),
			snap(published.Add(8*24*time.Hour), 8000),
		}
		views, ok := sevenDayViews(published, series)
		require.True(t, ok)
		assert.InDelta(t, 7000.0, views, 0.01)
	})

	t.Run("exact hit on cutoff", func(t *testing.T) {
		series := []*domain.Snapshot{
			snap(published.Add(24*time.Hour), 1000),
			snap(cutoff, 7200),
		}
		views, ok := sevenDayViews(published, series)
		require.True(t, ok)
		assert.Equal(t, 7200.0, views)
	})

	t.Run("series too young", func(t *testing.T) {
		series := []*domain.Snapshot{
			snap(published.Add(24*time.Hour), 1000),
			snap(published.Add(3*24*time.Hour), 3000),
		}
		_, ok := sevenDayViews(published, series)
		assert.False(t, ok)
	})

	t.Run("tracking started after cutoff yields no label", func(t *testing.T) {
		series := []*domain.Snapshot{
			snap(published.Add(9*24*time.Hour), 9000),
			snap(published.Add(10*24*time.Hour), 11000),
		}
		_, ok := sevenDayViews(published, series)
		assert.False(t, ok)
	})

	t.Run("empty series", func(t *testing.T) {
		_, ok := sevenDayViews(published, nil)
		assert.False(t, ok)
	})
}

func TestModelSet_WarmStart(t *testing.T) {
	store := newMemArtifactStore()
	ctx := context.Background()

	// Train a throwaway model and persist its artifact.
	svc, videos, channels, snapshots, trainedStore, _, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 10)
	report, err := svc.Run(ctx)
	require.NoError(t, err)
	for _, a := range trainedStore.saved {
		require.NoError(t, store.Save(ctx, a))
	}

	fresh := NewModelSet()
	require.False(t, fresh.Get(domain.ModelTypeShortForm).Trained())

	fresh.WarmStart(ctx, store, zap.NewNop())

	assert.True(t, fresh.Get(domain.ModelTypeShortForm).Trained())
	assert.Equal(t, report.ShortForm.Version, fresh.Get(domain.ModelTypeShortForm).Version())
	assert.Equal(t, report.LongForm.Version, fresh.Get(domain.ModelTypeLongForm).Version())
}

func TestModelSet_WarmStart_EmptyStore(t *testing.T) {
	fresh := NewModelSet()

	fresh.WarmStart(context.Background(), newMemArtifactStore(), zap.NewNop())

	info := fresh.Info()
	require.Len(t, info, 2)
	for _, i := range info {
		assert.False(t, i.Trained)
		assert.Equal(t, model.DefaultVersion, i.Version)
	}
}

func TestModelSet_WarmStart_CorruptArtifact(t *testing.T) {
	store := newMemArtifactStore()
	ctx := context.Background()

	// A readable sidecar whose blob is not a booster stream must not
	// prevent startup; the type keeps its fallback.
	require.NoError(t, store.Save(ctx, &model.Artifact{
		Version:   "v-corrupt",
		ModelType: domain.ModelTypeShortForm,
		TrainedAt: time.Now().UTC(),
		Blob:      []byte("not a booster stream"),
	}))

	fresh := NewModelSet()
	fresh.WarmStart(ctx, store, zap.NewNop())

	short := fresh.Get(domain.ModelTypeShortForm)
	assert.False(t, short.Trained())
	assert.Equal(t, model.DefaultVersion, short.Version())
	assert.Equal(t, model.DefaultVersion, fresh.Get(domain.ModelTypeLongForm).Version())
}

func TestTrainingService_Run_SecondSaveFailureRollsBack(t *testing.T) {
	svc, videos, channels, snapshots, store, models, _ := newTrainingFixture(smallTrainingConfig())
	seedTrainingData(t, videos, channels, snapshots, 10)

	store.saveErr = errors.New("disk full")
	store.failOnSave = 2

	ctx := context.Background()
	_, err := svc.Run(ctx)
	require.Error(t, err)

	// The aborted run leaves nothing behind: no swap, and neither type
	// resolves to an artifact a warm start could pair across runs.
	assert.False(t, models.Get(domain.ModelTypeShortForm).Trained())
	assert.False(t, models.Get(domain.ModelTypeLongForm).Trained())

	_, err = store.Latest(ctx, domain.ModelTypeShortForm)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Latest(ctx, domain.ModelTypeLongForm)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
