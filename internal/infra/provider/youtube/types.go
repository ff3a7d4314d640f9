package youtube

import (
	"strconv"
	"time"

	"view-forecast-service/internal/domain"
)

// videoListResponse mirrors the Data API v3 videos.list payload for the
// parts this client requests.
type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string          `json:"id"`
	Snippet        videoSnippet    `json:"snippet"`
	ContentDetails contentDetails  `json:"contentDetails"`
	Statistics     videoStatistics `json:"statistics"`
}

type videoSnippet struct {
	PublishedAt string   `json:"publishedAt"`
	ChannelID   string   `json:"channelId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"categoryId"`
}

type contentDetails struct {
	Duration string `json:"duration"` // ISO 8601, e.g. PT5M30S
}

// videoStatistics carries counters as decimal strings, as the API does.
type videoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID         string            `json:"id"`
	Snippet    channelSnippet    `json:"snippet"`
	Statistics channelStatistics `json:"statistics"`
}

type channelSnippet struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Country         string `json:"country"`
	DefaultLanguage string `json:"defaultLanguage"`
}

type channelStatistics struct {
	SubscriberCount string `json:"subscriberCount"`
	VideoCount      string `json:"videoCount"`
	ViewCount       string `json:"viewCount"`
}

// ToDomain converts a videoItem to domain.VideoRecord.
func (v *videoItem) ToDomain() *domain.VideoRecord {
	publishedAt, _ := time.Parse(time.RFC3339, v.Snippet.PublishedAt)

	return &domain.VideoRecord{
		ID:              v.ID,
		ChannelID:       v.Snippet.ChannelID,
		Title:           v.Snippet.Title,
		Description:     v.Snippet.Description,
		CategoryID:      v.Snippet.CategoryID,
		Tags:            v.Snippet.Tags,
		DurationSeconds: parseISODuration(v.ContentDetails.Duration),
		PublishedAt:     publishedAt,
		ViewCount:       parseCount(v.Statistics.ViewCount),
		LikeCount:       parseCount(v.Statistics.LikeCount),
		CommentCount:    parseCount(v.Statistics.CommentCount),
	}
}

// ToDomain converts a channelItem to domain.ChannelRecord.
func (c *channelItem) ToDomain() *domain.ChannelRecord {
	return &domain.ChannelRecord{
		ID:              c.ID,
		Title:           c.Snippet.Title,
		Description:     c.Snippet.Description,
		SubscriberCount: parseCount(c.Statistics.SubscriberCount),
		VideoCount:      parseCount(c.Statistics.VideoCount),
		ViewCount:       parseCount(c.Statistics.ViewCount),
		Country:         c.Snippet.Country,
		Language:        c.Snippet.DefaultLanguage,
	}
}

// parseCount reads the API's decimal-string counters. Hidden counters
// (empty strings) read as zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// parseISODuration converts an ISO 8601 duration (PT#H#M#S, with an
// optional leading P#D) to whole seconds. Malformed input reads as zero.
func parseISODuration(s string) int {
	if len(s) == 0 || s[0] != 'P' {
		return 0
	}

	var total, num int
	inTime := false
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'T':
			inTime = true
			num = 0
		case r == 'D':
			total += num * 86400
			num = 0
		case r == 'H' && inTime:
			total += num * 3600
			num = 0
		case r == 'M' && inTime:
			total += num * 60
			num = 0
		case r == 'S' && inTime:
			total += num
			num = 0
		default:
			return 0
		}
	}

	return total
}
