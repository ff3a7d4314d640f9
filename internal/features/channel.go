package features

import "math"

// AuthorityScore is a log-scaled composite of subscriber count and
// channel video count.
//
// Formula: log1p(subscribers) * log1p(video_count) * 0.7
func AuthorityScore(subscribers, videoCount int64) float64 {
	return math.Log1p(float64(subscribers)) * math.Log1p(float64(videoCount)) * 0.7
}

// Subscriber size buckets (label, by subscriber count).
var subscriberCategoryLabels = []string{"micro", "small", "medium", "large", "mega"}

// SubscriberCategoryIndex buckets a subscriber count into one of five
// size categories.
func SubscriberCategoryIndex(subscribers int64) int {
	switch {
	case subscribers < 1_000:
		return 0
	case subscribers < 10_000:
		return 1
	case subscribers < 100_000:
		return 2
	case subscribers < 1_000_000:
		return 3
	default:
		return 4
	}
}

// SubscriberCategory returns the subscriber size bucket label.
func SubscriberCategory(subscribers int64) string {
	return subscriberCategoryLabels[SubscriberCategoryIndex(subscribers)]
}

// Upload activity buckets (label, by channel video count).
var uploadActivityLabels = []string{"rare", "occasional", "regular", "prolific"}

// UploadActivityIndex buckets a channel's video count into activity levels.
func UploadActivityIndex(videoCount int64) int {
	switch {
	case videoCount < 10:
		return 0
	case videoCount < 100:
		return 1
	case videoCount < 1_000:
		return 2
	default:
		return 3
	}
}

// UploadActivity returns the upload activity bucket label.
func UploadActivity(videoCount int64) string {
	return uploadActivityLabels[UploadActivityIndex(videoCount)]
}

// videosPerSubscriber returns video_count / max(subscribers, 1).
func videosPerSubscriber(videoCount, subscribers int64) float64 {
	if subscribers < 1 {
		subscribers = 1
	}

	return float64(videoCount) / float64(subscribers)
}
