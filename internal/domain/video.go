// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"strings"
	"time"
)

// ShortFormMaxSeconds is the duration cutoff for short-form videos.
// A video is a short iff its duration is at most this many seconds.
const ShortFormMaxSeconds = 60

// VideoRecord represents one tracked YouTube video.
//
// Counts (views/likes/comments) are the most recent polled values and are
// updated on every re-poll. Once a video is marked deleted or private the
// record is frozen and no further updates are applied.
type VideoRecord struct {
	ID        string `json:"id"`         // YouTube video id
	ChannelID string `json:"channel_id"` // Owning channel id

	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Tags        []string `json:"tags,omitempty"`

	DurationSeconds int       `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`

	// Latest polled counters
	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`

	// Frozen is set when the video went deleted/private upstream.
	Frozen bool `json:"frozen"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsShort reports whether the video is short-form.
// This is always derived from duration, never stored independently.
func (v *VideoRecord) IsShort() bool {
	return v.DurationSeconds <= ShortFormMaxSeconds
}

// Validate checks the required fields for processing a video.
func (v *VideoRecord) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return &ValidationError{Field: "id", Reason: "video id is required"}
	}
	if strings.TrimSpace(v.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if v.DurationSeconds <= 0 {
		return &ValidationError{Field: "duration_seconds", Reason: "duration must be positive"}
	}
	if v.PublishedAt.IsZero() {
		return &ValidationError{Field: "published_at", Reason: "publish time is required"}
	}

	return nil
}

// AgeHours returns hours elapsed since publication at the given instant.
func (v *VideoRecord) AgeHours(at time.Time) float64 {
	hours := at.Sub(v.PublishedAt).Hours()
	if hours < 0 {
		return 0
	}

	return hours
}

// ChannelRecord represents the channel a video belongs to.
// Updated periodically; never deleted while referencing videos exist.
type ChannelRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	SubscriberCount int64 `json:"subscriber_count"`
	VideoCount      int64 `json:"video_count"`
	ViewCount       int64 `json:"view_count"` // Lifetime channel views

	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the required fields for a channel record.
func (c *ChannelRecord) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &ValidationError{Field: "id", Reason: "channel id is required"}
	}
	if c.SubscriberCount < 0 {
		return &ValidationError{Field: "subscriber_count", Reason: "subscriber count cannot be negative"}
	}

	return nil
}
