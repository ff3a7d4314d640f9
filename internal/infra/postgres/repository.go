package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"view-forecast-service/internal/domain"
)

// videoUpdateColumns are the columns refreshed on re-poll. Identity and
// creation metadata never change after the first insert.
var videoUpdateColumns = []string{
	"channel_id", "title", "description", "category_id", "tags",
	"duration_seconds", "published_at",
	"view_count", "like_count", "comment_count",
	"frozen", "updated_at",
}

// VideoRepository implements domain.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new PostgreSQL video repository.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID retrieves a single video by its YouTube id.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*domain.VideoRecord, error) {
	var model VideoModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}

		return nil, fmt.Errorf("getting video by id: %w", err)
	}

	return model.ToDomain(), nil
}

// Upsert creates or updates a single video. Frozen rows keep their last
// good state: the update applies only while the stored row is not frozen.
func (r *VideoRepository) Upsert(ctx context.Context, video *domain.VideoRecord) error {
	model := VideoFromDomain(video)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(videoUpdateColumns),
		Where:     clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "videos.frozen", Value: false}}},
	}).Create(model).Error

	if err != nil {
		return fmt.Errorf("upserting video: %w", err)
	}

	video.CreatedAt = model.CreatedAt
	video.UpdatedAt = model.UpdatedAt

	return nil
}

// BulkUpsert creates or updates multiple videos in a batch.
func (r *VideoRepository) BulkUpsert(ctx context.Context, videos []*domain.VideoRecord) error {
	if len(videos) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]*VideoModel, len(videos))
	for i, v := range videos {
		models[i] = VideoFromDomain(v)
		models[i].UpdatedAt = now
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(videoUpdateColumns),
		Where:     clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "videos.frozen", Value: false}}},
	}).CreateInBatches(models, 100).Error

	if err != nil {
		return fmt.Errorf("bulk upserting videos: %w", err)
	}

	return nil
}

// ListTracked returns all non-frozen videos under active polling,
// oldest publication first.
func (r *VideoRepository) ListTracked(ctx context.Context) ([]*domain.VideoRecord, error) {
	var models []VideoModel
	err := r.db.WithContext(ctx).
		Where("frozen = ?", false).
		Order("published_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing tracked videos: %w", err)
	}

	return toDomainVideos(models), nil
}

// ListForTraining returns videos meeting the training data thresholds.
// The snapshot-count floor joins against the snapshots table so the
// filter runs entirely in the database.
func (r *VideoRepository) ListForTraining(ctx context.Context, filter domain.TrainingFilter) ([]*domain.VideoRecord, error) {
	query := r.db.WithContext(ctx).Model(&VideoModel{}).
		Where("videos.frozen = ?", false)

	if filter.MinViews > 0 {
		query = query.Where("videos.view_count >= ?", filter.MinViews)
	}
	if filter.MinAgeHours > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(filter.MinAgeHours * float64(time.Hour)))
		query = query.Where("videos.published_at <= ?", cutoff)
	}
	if filter.MinSubscribers > 0 {
		query = query.
			Joins("JOIN channels ON channels.id = videos.channel_id").
			Where("channels.subscriber_count >= ?", filter.MinSubscribers)
	}
	if filter.MinSnapshots > 0 {
		query = query.Where(
			"(SELECT COUNT(*) FROM snapshots WHERE snapshots.video_id = videos.id) >= ?",
			filter.MinSnapshots,
		)
	}

	var models []VideoModel
	if err := query.Order("videos.published_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing training videos: %w", err)
	}

	return toDomainVideos(models), nil
}

// Count returns the total number of tracked videos.
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&VideoModel{}).
		Where("frozen = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting videos: %w", err)
	}

	return count, nil
}

func toDomainVideos(models []VideoModel) []*domain.VideoRecord {
	videos := make([]*domain.VideoRecord, len(models))
	for i, m := range models {
		videos[i] = m.ToDomain()
	}

	return videos
}

// ChannelRepository implements domain.ChannelRepository using PostgreSQL.
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new PostgreSQL channel repository.
func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// GetByID retrieves a single channel by its id.
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*domain.ChannelRecord, error) {
	var model ChannelModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}

		return nil, fmt.Errorf("getting channel by id: %w", err)
	}

	return model.ToDomain(), nil
}

// Upsert creates or updates a channel.
func (r *ChannelRepository) Upsert(ctx context.Context, channel *domain.ChannelRecord) error {
	model := ChannelFromDomain(channel)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description",
			"subscriber_count", "video_count", "view_count",
			"country", "language", "updated_at",
		}),
	}).Create(model).Error

	if err != nil {
		return fmt.Errorf("upserting channel: %w", err)
	}

	channel.CreatedAt = model.CreatedAt
	channel.UpdatedAt = model.UpdatedAt

	return nil
}

// SnapshotRepository implements domain.SnapshotRepository using PostgreSQL.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Append stores new enriched snapshots. Re-delivered (video, captured_at)
// pairs are ignored, keeping the series append-only and idempotent.
func (r *SnapshotRepository) Append(ctx context.Context, snapshots []*domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	models := make([]*SnapshotModel, len(snapshots))
	for i, s := range snapshots {
		models[i] = SnapshotFromDomain(s)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "captured_at"}},
		DoNothing: true,
	}).CreateInBatches(models, 200).Error

	if err != nil {
		return fmt.Errorf("appending snapshots: %w", err)
	}

	return nil
}

// ListByVideo returns a video's full series, oldest first.
func (r *SnapshotRepository) ListByVideo(ctx context.Context, videoID string) ([]*domain.Snapshot, error) {
	var models []SnapshotModel
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("captured_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots := make([]*domain.Snapshot, len(models))
	for i, m := range models {
		snapshots[i] = m.ToDomain()
	}

	return snapshots, nil
}

// CountByVideo returns the number of snapshots for a video.
func (r *SnapshotRepository) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SnapshotModel{}).
		Where("video_id = ?", videoID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}

	return count, nil
}

// MarkAnomalous sets the anomaly flag on an existing snapshot. The flag
// is only ever set, never cleared.
func (r *SnapshotRepository) MarkAnomalous(ctx context.Context, videoID string, capturedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&SnapshotModel{}).
		Where("video_id = ? AND captured_at = ?", videoID, capturedAt).
		Update("is_anomaly", true).Error
	if err != nil {
		return fmt.Errorf("marking snapshot anomalous: %w", err)
	}

	return nil
}
