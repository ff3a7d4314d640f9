package postgres

import (
	"time"

	"github.com/lib/pq"

	"view-forecast-service/internal/domain"
)

// VideoModel is the GORM model for the videos table.
type VideoModel struct {
	ID        string `gorm:"type:varchar(20);primaryKey"`
	ChannelID string `gorm:"type:varchar(30);not null;index"`

	Title       string         `gorm:"type:varchar(500);not null"`
	Description string         `gorm:"type:text"`
	CategoryID  string         `gorm:"type:varchar(10);index"`
	Tags        pq.StringArray `gorm:"type:text[]"`

	DurationSeconds int       `gorm:"not null"`
	PublishedAt     time.Time `gorm:"not null;index"`

	ViewCount    int64 `gorm:"default:0"`
	LikeCount    int64 `gorm:"default:0"`
	CommentCount int64 `gorm:"default:0"`

	Frozen bool `gorm:"default:false;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for VideoModel.
func (VideoModel) TableName() string {
	return "videos"
}

// ToDomain converts VideoModel to domain.VideoRecord.
func (m *VideoModel) ToDomain() *domain.VideoRecord {
	return &domain.VideoRecord{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		Title:           m.Title,
		Description:     m.Description,
		CategoryID:      m.CategoryID,
		Tags:            m.Tags,
		DurationSeconds: m.DurationSeconds,
		PublishedAt:     m.PublishedAt,
		ViewCount:       m.ViewCount,
		LikeCount:       m.LikeCount,
		CommentCount:    m.CommentCount,
		Frozen:          m.Frozen,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// VideoFromDomain creates a VideoModel from domain.VideoRecord.
func VideoFromDomain(v *domain.VideoRecord) *VideoModel {
	return &VideoModel{
		ID:              v.ID,
		ChannelID:       v.ChannelID,
		Title:           v.Title,
		Description:     v.Description,
		CategoryID:      v.CategoryID,
		Tags:            v.Tags,
		DurationSeconds: v.DurationSeconds,
		PublishedAt:     v.PublishedAt,
		ViewCount:       v.ViewCount,
		LikeCount:       v.LikeCount,
		CommentCount:    v.CommentCount,
		Frozen:          v.Frozen,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

// ChannelModel is the GORM model for the channels table.
type ChannelModel struct {
	ID string `gorm:"type:varchar(30);primaryKey"`

	Title       string `gorm:"type:varchar(500);not null"`
	Description string `gorm:"type:text"`

	SubscriberCount int64 `gorm:"default:0"`
	VideoCount      int64 `gorm:"default:0"`
	ViewCount       int64 `gorm:"default:0"`

	Country  string `gorm:"type:varchar(5)"`
	Language string `gorm:"type:varchar(10)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ChannelModel.
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts ChannelModel to domain.ChannelRecord.
func (m *ChannelModel) ToDomain() *domain.ChannelRecord {
	return &domain.ChannelRecord{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		SubscriberCount: m.SubscriberCount,
		VideoCount:      m.VideoCount,
		ViewCount:       m.ViewCount,
		Country:         m.Country,
		Language:        m.Language,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ChannelFromDomain creates a ChannelModel from domain.ChannelRecord.
func ChannelFromDomain(c *domain.ChannelRecord) *ChannelModel {
	return &ChannelModel{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		SubscriberCount: c.SubscriberCount,
		VideoCount:      c.VideoCount,
		ViewCount:       c.ViewCount,
		Country:         c.Country,
		Language:        c.Language,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// SnapshotModel is the GORM model for the snapshots table. Rows are
// append-only: only the is_anomaly flag is ever updated in place.
type SnapshotModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	VideoID    string    `gorm:"type:varchar(20);not null;index:idx_snapshots_video_captured,unique"`
	CapturedAt time.Time `gorm:"not null;index:idx_snapshots_video_captured,unique"`

	ViewCount    int64 `gorm:"default:0"`
	LikeCount    int64 `gorm:"default:0"`
	CommentCount int64 `gorm:"default:0"`

	ViewsSinceLast    *int64   `gorm:"default:null"`
	ViewGrowthRate    *float64 `gorm:"default:null"`
	LikeGrowthRate    *float64 `gorm:"default:null"`
	CommentGrowthRate *float64 `gorm:"default:null"`

	HoursSincePublished float64 `gorm:"default:0"`
	EngagementRate      float64 `gorm:"default:0"`

	IsAnomaly bool `gorm:"default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for SnapshotModel.
func (SnapshotModel) TableName() string {
	return "snapshots"
}

// ToDomain converts SnapshotModel to domain.Snapshot.
func (m *SnapshotModel) ToDomain() *domain.Snapshot {
	return &domain.Snapshot{
		VideoID:             m.VideoID,
		CapturedAt:          m.CapturedAt,
		ViewCount:           m.ViewCount,
		LikeCount:           m.LikeCount,
		CommentCount:        m.CommentCount,
		ViewsSinceLast:      m.ViewsSinceLast,
		ViewGrowthRate:      m.ViewGrowthRate,
		LikeGrowthRate:      m.LikeGrowthRate,
		CommentGrowthRate:   m.CommentGrowthRate,
		HoursSincePublished: m.HoursSincePublished,
		EngagementRate:      m.EngagementRate,
		IsAnomaly:           m.IsAnomaly,
	}
}

// SnapshotFromDomain creates a SnapshotModel from domain.Snapshot.
func SnapshotFromDomain(s *domain.Snapshot) *SnapshotModel {
	return &SnapshotModel{
		VideoID:             s.VideoID,
		CapturedAt:          s.CapturedAt,
		ViewCount:           s.ViewCount,
		LikeCount:           s.LikeCount,
		CommentCount:        s.CommentCount,
		ViewsSinceLast:      s.ViewsSinceLast,
		ViewGrowthRate:      s.ViewGrowthRate,
		LikeGrowthRate:      s.LikeGrowthRate,
		CommentGrowthRate:   s.CommentGrowthRate,
		HoursSincePublished: s.HoursSincePublished,
		EngagementRate:      s.EngagementRate,
		IsAnomaly:           s.IsAnomaly,
	}
}
