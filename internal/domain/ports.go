package domain

import (
	"context"
	"time"
)

// TrainingFilter holds the minimum data thresholds a video must meet to
// qualify for a training run.
type TrainingFilter struct {
	MinViews       int64
	MinSubscribers int64
	MinSnapshots   int64
	MinAgeHours    float64
}

// VideoRepository defines persistence for video records.
// Implementations: internal/infra/postgres/repository.go
type VideoRepository interface {
	// GetByID retrieves a video by its YouTube id. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*VideoRecord, error)

	// Upsert creates or updates a single video keyed by its id.
	// Frozen records are never overwritten.
	Upsert(ctx context.Context, video *VideoRecord) error

	// BulkUpsert creates or updates multiple videos in a batch.
	BulkUpsert(ctx context.Context, videos []*VideoRecord) error

	// ListTracked returns all non-frozen videos under active polling.
	ListTracked(ctx context.Context) ([]*VideoRecord, error)

	// ListForTraining returns videos meeting the filter thresholds.
	ListForTraining(ctx context.Context, filter TrainingFilter) ([]*VideoRecord, error)

	// Count returns the number of tracked videos.
	Count(ctx context.Context) (int64, error)
}

// ChannelRepository defines persistence for channel records.
type ChannelRepository interface {
	// GetByID retrieves a channel. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*ChannelRecord, error)

	// Upsert creates or updates a channel keyed by its id.
	Upsert(ctx context.Context, channel *ChannelRecord) error
}

// SnapshotRepository defines persistence for the append-only snapshot
// series. Implementations must return series ordered by captured_at
// ascending; rows are never mutated after creation except for the
// anomaly flag.
type SnapshotRepository interface {
	// Append stores new enriched snapshots.
	Append(ctx context.Context, snapshots []*Snapshot) error

	// ListByVideo returns a video's full series, oldest first.
	ListByVideo(ctx context.Context, videoID string) ([]*Snapshot, error)

	// CountByVideo returns the number of snapshots for a video.
	CountByVideo(ctx context.Context, videoID string) (int64, error)

	// MarkAnomalous sets the anomaly flag on an existing snapshot.
	MarkAnomalous(ctx context.Context, videoID string, capturedAt time.Time) error
}

// MetadataProvider is the data-collection collaborator supplying raw
// video/channel records and periodic statistics readings.
// Implementations: internal/infra/provider/youtube/
type MetadataProvider interface {
	// Name returns the unique identifier for this provider.
	Name() string

	// FetchVideo retrieves a video and its channel by video id.
	FetchVideo(ctx context.Context, videoID string) (*VideoRecord, *ChannelRecord, error)

	// FetchStatistics retrieves current counter readings for the given
	// video ids. Missing videos are simply absent from the result.
	FetchStatistics(ctx context.Context, videoIDs []string) ([]StatisticsReading, error)

	// HealthCheck verifies the provider is accessible.
	HealthCheck(ctx context.Context) error
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}
