// Package youtube implements the YouTube Data API v3 metadata provider.
package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/infra/provider"
)

// API paths relative to the configured base URL.
const (
	videosEndpoint   = "/videos"
	channelsEndpoint = "/channels"
)

// maxIDsPerCall is the Data API's cap on comma-joined ids per request.
const maxIDsPerCall = 50

// Client implements domain.MetadataProvider against the Data API v3.
type Client struct {
	name   string
	apiKey string
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new YouTube provider client.
func New(cfg provider.ClientConfig, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		name:   "youtube",
		apiKey: apiKey,
		client: provider.NewRestyClient(cfg),
		cb:     provider.NewCircuitBreakerWithLogger[*resty.Response]("youtube", cfg.CB, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

// FetchVideo retrieves one video and its owning channel. An unknown id
// returns (nil, nil, nil): absence upstream is not an error.
func (c *Client) FetchVideo(ctx context.Context, videoID string) (*domain.VideoRecord, *domain.ChannelRecord, error) {
	var videos videoListResponse
	err := c.get(ctx, videosEndpoint, map[string]string{
		"part": "snippet,contentDetails,statistics",
		"id":   videoID,
	}, &videos)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching video %s: %w", videoID, err)
	}

	if len(videos.Items) == 0 {
		c.logger.Debug("video absent upstream", zap.String("video_id", videoID))
		return nil, nil, nil
	}

	video := videos.Items[0].ToDomain()

	var channels channelListResponse
	err = c.get(ctx, channelsEndpoint, map[string]string{
		"part": "snippet,statistics",
		"id":   video.ChannelID,
	}, &channels)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching channel %s: %w", video.ChannelID, err)
	}

	var channel *domain.ChannelRecord
	if len(channels.Items) > 0 {
		channel = channels.Items[0].ToDomain()
	}

	c.logger.Debug("video fetched",
		zap.String("video_id", video.ID),
		zap.String("channel_id", video.ChannelID),
		zap.Int("duration_seconds", video.DurationSeconds),
	)

	return video, channel, nil
}

// FetchStatistics retrieves current counter readings for the given ids,
// batching at the API's per-call limit. Missing videos are simply absent
// from the result.
func (c *Client) FetchStatistics(ctx context.Context, videoIDs []string) ([]domain.StatisticsReading, error) {
	readings := make([]domain.StatisticsReading, 0, len(videoIDs))

	for from := 0; from < len(videoIDs); from += maxIDsPerCall {
		to := from + maxIDsPerCall
		if to > len(videoIDs) {
			to = len(videoIDs)
		}

		var videos videoListResponse
		err := c.get(ctx, videosEndpoint, map[string]string{
			"part": "statistics",
			"id":   strings.Join(videoIDs[from:to], ","),
		}, &videos)
		if err != nil {
			return nil, fmt.Errorf("fetching statistics: %w", err)
		}

		capturedAt := c.now().UTC()
		for _, item := range videos.Items {
			readings = append(readings, domain.StatisticsReading{
				VideoID: item.ID,
				Reading: domain.Reading{
					CapturedAt:   capturedAt,
					ViewCount:    parseCount(item.Statistics.ViewCount),
					LikeCount:    parseCount(item.Statistics.LikeCount),
					CommentCount: parseCount(item.Statistics.CommentCount),
				},
			})
		}
	}

	c.logger.Debug("statistics fetched",
		zap.Int("requested", len(videoIDs)),
		zap.Int("returned", len(readings)),
	)

	return readings, nil
}

// HealthCheck verifies the API is reachable with the configured key.
func (c *Client) HealthCheck(ctx context.Context) error {
	var videos videoListResponse

	return c.get(ctx, videosEndpoint, map[string]string{
		"part":       "id",
		"chart":      "mostPopular",
		"maxResults": "1",
	}, &videos)
}

// get runs one API call through the circuit breaker.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, result any) error {
	_, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("key", c.apiKey).
			SetResult(result).
			Get(endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("youtube returned status %d", r.StatusCode())
		}

		return r, nil
	})

	if err != nil {
		c.logger.Warn("youtube request failed",
			zap.String("endpoint", endpoint),
			zap.String("state", c.cb.State().String()),
			zap.Error(err),
		)
	}

	return err
}
