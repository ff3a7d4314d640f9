package domain

import (
	"math"
	"time"
)

// Reading is one raw (timestamp, counters) observation for a video,
// as delivered by the periodic-poll collaborator.
type Reading struct {
	CapturedAt   time.Time `json:"captured_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
}

// StatisticsReading is a Reading tagged with the video it belongs to.
type StatisticsReading struct {
	VideoID string `json:"video_id"`
	Reading
}

// Snapshot is one enriched observation in a video's append-only series.
//
// Growth fields are computed once, at creation time, against the
// immediately preceding snapshot of the same video. They are nil for the
// first snapshot and whenever the elapsed time is not positive. The only
// field mutated after creation is IsAnomaly, set once more history makes
// the point classifiable.
type Snapshot struct {
	VideoID      string    `json:"video_id"`
	CapturedAt   time.Time `json:"captured_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`

	// Derived relative to the previous snapshot
	ViewsSinceLast    *int64   `json:"views_since_last,omitempty"`
	ViewGrowthRate    *float64 `json:"view_growth_rate,omitempty"`    // views/hour
	LikeGrowthRate    *float64 `json:"like_growth_rate,omitempty"`    // likes/hour
	CommentGrowthRate *float64 `json:"comment_growth_rate,omitempty"` // comments/hour

	// Derived relative to publish time
	HoursSincePublished float64 `json:"hours_since_published"`

	EngagementRate float64 `json:"engagement_rate"`

	// IsAnomaly annotates the point for downstream filtering.
	// It never deletes or corrects the underlying counts.
	IsAnomaly bool `json:"is_anomaly"`
}

// Performance tiers bucket a view growth rate (views/hour).
type PerformanceTier string

const (
	TierStagnant PerformanceTier = "stagnant" // < 1
	TierLow      PerformanceTier = "low"      // < 10
	TierMedium   PerformanceTier = "medium"   // < 100
	TierHigh     PerformanceTier = "high"     // < 1000
	TierViral    PerformanceTier = "viral"    // >= 1000
)

// Tier buckets a view growth rate into a performance tier.
func Tier(viewGrowthRate float64) PerformanceTier {
	switch {
	case viewGrowthRate < 1:
		return TierStagnant
	case viewGrowthRate < 10:
		return TierLow
	case viewGrowthRate < 100:
		return TierMedium
	case viewGrowthRate < 1000:
		return TierHigh
	default:
		return TierViral
	}
}

// Tracker defaults.
const (
	DefaultAnomalyWindow    = 10
	MinAnomalyWindow        = 3
	DefaultAnomalyThreshold = 3.0

	// Views should not meaningfully decrease. A drop beyond this guard
	// is flagged regardless of the statistical test.
	negativeGrowthGuard = -100

	// MomentumNeutral is returned when there is not enough history or
	// the earlier-rate denominator is zero.
	MomentumNeutral = 0.5
)

// Tracker enriches one video's ordered readings into Snapshots.
//
// A Tracker holds a bounded ring buffer of recent growth rates used by
// the anomaly test. Trackers are cheap and single-video: concurrent
// videos each get their own Tracker and need no synchronization.
type Tracker struct {
	threshold float64
	rates     *rateRing
}

// NewTracker creates a Tracker with the given anomaly window and z-score
// threshold. Windows below MinAnomalyWindow are raised to it; non-positive
// arguments fall back to the defaults.
func NewTracker(window int, threshold float64) *Tracker {
	if window <= 0 {
		window = DefaultAnomalyWindow
	}
	if window < MinAnomalyWindow {
		window = MinAnomalyWindow
	}
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	return &Tracker{
		threshold: threshold,
		rates:     newRateRing(window),
	}
}

// Enrich converts ordered raw readings into the parallel enriched series.
//
// Timestamps must be strictly increasing; out-of-order or duplicate
// timestamps are rejected with a ValidationError, never silently
// reordered. Everything else degrades to nil/neutral values.
func (t *Tracker) Enrich(video *VideoRecord, readings []Reading) ([]*Snapshot, error) {
	if video == nil {
		return nil, &ValidationError{Field: "video", Reason: "video is required"}
	}

	snapshots := make([]*Snapshot, 0, len(readings))

	for i, r := range readings {
		if i > 0 && !r.CapturedAt.After(readings[i-1].CapturedAt) {
			return nil, &ValidationError{
				Field:  "captured_at",
				Reason: "snapshot timestamps must be strictly increasing",
			}
		}

		snap := &Snapshot{
			VideoID:             video.ID,
			CapturedAt:          r.CapturedAt,
			ViewCount:           r.ViewCount,
			LikeCount:           r.LikeCount,
			CommentCount:        r.CommentCount,
			HoursSincePublished: hoursBetween(video.PublishedAt, r.CapturedAt),
			EngagementRate:      engagementRate(r),
		}

		if i > 0 {
			t.derive(snap, readings[i-1], r)
		}

		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// derive fills the previous-snapshot-relative fields and runs the anomaly
// test, then feeds the new rate into the rolling window.
func (t *Tracker) derive(snap *Snapshot, prev, cur Reading) {
	deltaViews := cur.ViewCount - prev.ViewCount
	snap.ViewsSinceLast = &deltaViews

	dtHours := cur.CapturedAt.Sub(prev.CapturedAt).Hours()
	if dtHours <= 0 {
		// No negative-time growth. The hard drop guard still applies.
		snap.IsAnomaly = deltaViews < negativeGrowthGuard
		return
	}

	viewRate := float64(deltaViews) / dtHours
	likeRate := float64(cur.LikeCount-prev.LikeCount) / dtHours
	commentRate := float64(cur.CommentCount-prev.CommentCount) / dtHours

	snap.ViewGrowthRate = &viewRate
	snap.LikeGrowthRate = &likeRate
	snap.CommentGrowthRate = &commentRate

	snap.IsAnomaly = t.isAnomalous(viewRate, deltaViews)
	t.rates.push(viewRate)
}

// isAnomalous applies the rolling z-score test against the rates seen so
// far, plus the hard negative-growth guard.
func (t *Tracker) isAnomalous(rate float64, deltaViews int64) bool {
	if deltaViews < negativeGrowthGuard {
		return true
	}

	prior := t.rates.values()
	if len(prior) < 2 {
		return false
	}

	mean, std := meanStd(prior)
	if std <= 0 {
		return false
	}

	return math.Abs(rate-mean)/std > t.threshold
}

// Momentum scores how a video's recent growth compares to its earlier
// growth, normalized into [0, 1].
//
// Formula: clamp(recentAvg / earlierAvg / 2, 0, 1) where "recent" is the
// last 3 rates and "earlier" is the remainder. Returns MomentumNeutral
// (0.5) when there are fewer than 4 rates or the earlier average is zero.
func Momentum(growthRates []float64) float64 {
	const recentWindow = 3

	if len(growthRates) < recentWindow+1 {
		return MomentumNeutral
	}

	split := len(growthRates) - recentWindow
	earlierAvg := mean(growthRates[:split])
	recentAvg := mean(growthRates[split:])

	if earlierAvg == 0 {
		return MomentumNeutral
	}

	return clamp01(recentAvg / earlierAvg / 2)
}

// GrowthRates extracts the non-nil view growth rates from a series.
func GrowthRates(snapshots []*Snapshot) []float64 {
	rates := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		if s.ViewGrowthRate != nil {
			rates = append(rates, *s.ViewGrowthRate)
		}
	}

	return rates
}

// engagementRate computes (likes + comments) / max(views, 1).
func engagementRate(r Reading) float64 {
	views := r.ViewCount
	if views < 1 {
		views = 1
	}

	return float64(r.LikeCount+r.CommentCount) / float64(views)
}

func hoursBetween(from, to time.Time) float64 {
	hours := to.Sub(from).Hours()
	if hours < 0 {
		return 0
	}

	return hours
}

// rateRing is a bounded ring buffer of recent growth rates.
// Explicit per-tracker state, never ambient or global.
type rateRing struct {
	buf  []float64
	next int
	full bool
}

func newRateRing(size int) *rateRing {
	return &rateRing{buf: make([]float64, size)}
}

func (r *rateRing) push(v float64) {
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// values returns the buffered rates in insertion order.
func (r *rateRing) values() []float64 {
	if !r.full {
		return append([]float64(nil), r.buf[:r.next]...)
	}

	out := make([]float64, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)

	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// meanStd returns the mean and sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	m := mean(values)
	if len(values) < 2 {
		return m, 0
	}

	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}

	return m, math.Sqrt(ss / float64(len(values)-1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}
