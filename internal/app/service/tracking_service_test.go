package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
)

func newTrackingFixture() (*TrackingService, *memVideoRepo, *memSnapshotRepo, *fakeProvider) {
	videos := newMemVideoRepo()
	channels := newMemChannelRepo()
	snapshots := newMemSnapshotRepo()
	provider := newFakeProvider()

	svc := NewTrackingService(videos, channels, snapshots, provider, 0, 0, zap.NewNop())

	return svc, videos, snapshots, provider
}

func TestTrackingService_Track(t *testing.T) {
	svc, videos, _, provider := newTrackingFixture()
	ctx := context.Background()

	provider.videos["v1"] = testVideo("v1", "c1", 45)
	provider.channels["c1"] = testChannel("c1", 10_000)

	tracked, err := svc.Track(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", tracked.ID)

	stored, err := videos.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestTrackingService_Track_Unknown(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()

	_, err := svc.Track(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTrackingService_Track_EmptyID(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()

	var vErr *domain.ValidationError
	_, err := svc.Track(context.Background(), "")
	require.ErrorAs(t, err, &vErr)
}

func TestTrackingService_PollAll_AppendsSnapshots(t *testing.T) {
	svc, videos, snapshots, provider := newTrackingFixture()
	ctx := context.Background()

	require.NoError(t, videos.Upsert(ctx, testVideo("v1", "c1", 45)))
	require.NoError(t, videos.Upsert(ctx, testVideo("v2", "c1", 900)))

	at := basePublished.Add(2 * time.Hour)
	provider.stats["v1"] = domain.Reading{CapturedAt: at, ViewCount: 500, LikeCount: 40}
	provider.stats["v2"] = domain.Reading{CapturedAt: at, ViewCount: 12_000, LikeCount: 900}

	result, err := svc.PollAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.VideosPolled)
	assert.Equal(t, 2, result.SnapshotsAppended)
	assert.Zero(t, result.VideosFailed)

	series, err := snapshots.ListByVideo(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Nil(t, series[0].ViewGrowthRate, "first snapshot has no growth context")
	assert.InDelta(t, 2.0, series[0].HoursSincePublished, 0.01)

	// A second cycle with the same timestamps is an idempotent no-op.
	again, err := svc.PollAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.SnapshotsAppended)
}

func TestTrackingService_PollAll_DerivesGrowth(t *testing.T) {
	svc, videos, snapshots, provider := newTrackingFixture()
	ctx := context.Background()

	require.NoError(t, videos.Upsert(ctx, testVideo("v1", "c1", 45)))

	// Two cycles one hour apart.
	provider.stats["v1"] = domain.Reading{CapturedAt: basePublished.Add(time.Hour), ViewCount: 1000}
	_, err := svc.PollAll(ctx)
	require.NoError(t, err)

	provider.stats["v1"] = domain.Reading{CapturedAt: basePublished.Add(2 * time.Hour), ViewCount: 1500}
	_, err = svc.PollAll(ctx)
	require.NoError(t, err)

	series, err := snapshots.ListByVideo(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, series, 2)

	second := series[1]
	require.NotNil(t, second.ViewsSinceLast)
	assert.Equal(t, int64(500), *second.ViewsSinceLast)
	require.NotNil(t, second.ViewGrowthRate)
	assert.InDelta(t, 500.0, *second.ViewGrowthRate, 0.01)
}

func TestTrackingService_PollAll_FlagsHardDrop(t *testing.T) {
	svc, videos, snapshots, provider := newTrackingFixture()
	ctx := context.Background()

	require.NoError(t, videos.Upsert(ctx, testVideo("v1", "c1", 45)))

	provider.stats["v1"] = domain.Reading{CapturedAt: basePublished.Add(time.Hour), ViewCount: 10_000}
	_, err := svc.PollAll(ctx)
	require.NoError(t, err)

	// Views dropping by more than the guard is always anomalous.
	provider.stats["v1"] = domain.Reading{CapturedAt: basePublished.Add(2 * time.Hour), ViewCount: 9_000}
	result, err := svc.PollAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AnomaliesFlagged)

	series, err := snapshots.ListByVideo(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series[1].IsAnomaly)
}

func TestTrackingService_GrowthSummary(t *testing.T) {
	svc, videos, snapshots, _ := newTrackingFixture()
	ctx := context.Background()

	video := testVideo("v1", "c1", 45)
	require.NoError(t, videos.Upsert(ctx, video))

	readings := []domain.Reading{
		{CapturedAt: basePublished.Add(1 * time.Hour), ViewCount: 1000},
		{CapturedAt: basePublished.Add(2 * time.Hour), ViewCount: 1300},
		{CapturedAt: basePublished.Add(3 * time.Hour), ViewCount: 1650},
	}
	tracker := domain.NewTracker(0, 0)
	series, err := tracker.Enrich(video, readings)
	require.NoError(t, err)
	require.NoError(t, snapshots.Append(ctx, series))

	summary, err := svc.GrowthSummary(ctx, "v1")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SnapshotCount)
	assert.Equal(t, int64(1650), summary.LatestViews)
	require.NotNil(t, summary.GrowthRate)
	assert.InDelta(t, 350.0, *summary.GrowthRate, 0.01)
	assert.Equal(t, domain.TierHigh, summary.Tier)
	assert.Equal(t, domain.MomentumNeutral, summary.Momentum, "under 4 rates keeps momentum neutral")
	assert.Zero(t, summary.AnomalyCount)
}

func TestTrackingService_GrowthSummary_NoSnapshots(t *testing.T) {
	svc, videos, _, _ := newTrackingFixture()
	ctx := context.Background()

	require.NoError(t, videos.Upsert(ctx, testVideo("v1", "c1", 45)))

	summary, err := svc.GrowthSummary(ctx, "v1")
	require.NoError(t, err)
	assert.Zero(t, summary.SnapshotCount)
	assert.Nil(t, summary.GrowthRate)
	assert.Equal(t, domain.TierStagnant, summary.Tier)
}

func TestTrackingService_GrowthSummary_UnknownVideo(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()

	_, err := svc.GrowthSummary(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
