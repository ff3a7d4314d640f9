// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"fmt"
	"strconv"
	"strings"

	"view-forecast-service/internal/domain"
)

// maxTimeframeDays caps a forecast horizon at one year.
const maxTimeframeDays = 365

// PredictionRequest represents the query parameters for a forecast.
//
// Either a single timeframe or a comma-separated list may be given.
// When both are empty the standard horizons are served.
type PredictionRequest struct {
	Timeframe  int    `query:"timeframe" validate:"omitempty,min=1,max=365"`
	Timeframes string `query:"timeframes" validate:"omitempty,max=100"`
}

// ParseTimeframes resolves the request to a list of horizons in days.
// An empty request falls back to domain.StandardTimeframes.
func (r *PredictionRequest) ParseTimeframes() ([]int, error) {
	if r.Timeframe > 0 {
		return []int{r.Timeframe}, nil
	}
	if r.Timeframes == "" {
		return append([]int(nil), domain.StandardTimeframes...), nil
	}

	parts := strings.Split(r.Timeframes, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid timeframe %q", part)
		}
		if n < 1 || n > maxTimeframeDays {
			return nil, fmt.Errorf("timeframe %d out of range [1, %d]", n, maxTimeframeDays)
		}
		days = append(days, n)
	}

	return days, nil
}

// TrackRequest represents the request body for registering a video.
type TrackRequest struct {
	VideoID string `json:"video_id" validate:"required,min=5,max=20"`
}
