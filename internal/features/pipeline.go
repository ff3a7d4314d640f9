// Package features turns raw video and channel records into flat,
// model-ready feature vectors.
package features

import (
	"math"
	"sort"
	"strings"

	"view-forecast-service/internal/domain"
)

// Vector is a flat mapping from feature name to numeric value.
// Boolean features are encoded as 0/1; bucketed categorical features
// carry their bucket index (the label helpers in this package recover
// the human-readable bucket names).
type Vector map[string]float64

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}

	return out
}

// History carries optional snapshot-derived signals for a video. When a
// video has no tracked history, a nil History yields neutral defaults.
type History struct {
	AvgGrowthRate float64
	Momentum      float64
	AnomalyCount  int
	SnapshotCount int
}

// Pipeline derives feature vectors from raw records.
//
// Transform is a pure function of its inputs: identical input always
// yields an identical vector, and a structurally valid but sparse record
// never fails (missing text defaults to empty, missing numerics to 0).
// Fit computes dataset-level statistics for introspection and analysis;
// Transform works identically on an unfitted pipeline.
type Pipeline struct {
	stats *Stats
}

// Stats holds dataset-level statistics computed by Fit.
type Stats struct {
	SampleCount   int                           `json:"sample_count"`
	Means         map[string]float64            `json:"means"`
	Stds          map[string]float64            `json:"stds"`
	CategoryFreqs map[string]map[string]float64 `json:"category_freqs"`
}

// New creates an unfitted Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Fitted reports whether dataset statistics are available.
func (p *Pipeline) Fitted() bool {
	return p.stats != nil
}

// Stats returns the fitted dataset statistics, or nil when unfitted.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Transform derives the feature vector for one video. The channel is
// optional; absent channel features default to zero.
func (p *Pipeline) Transform(video *domain.VideoRecord, channel *domain.ChannelRecord) Vector {
	return p.TransformWithHistory(video, channel, nil)
}

// TransformWithHistory derives the feature vector including optional
// snapshot-derived growth signals.
func (p *Pipeline) TransformWithHistory(video *domain.VideoRecord, channel *domain.ChannelRecord, hist *History) Vector {
	v := make(Vector, 64)

	p.durationFeatures(v, video)
	p.temporalFeatures(v, video)
	p.textFeatures(v, video)
	p.channelFeatures(v, channel)
	p.tagFeatures(v, video)
	p.localeFeatures(v, video)
	p.engagementFeatures(v, video)
	p.historyFeatures(v, hist)
	p.interactionFeatures(v)

	return v
}

func (p *Pipeline) durationFeatures(v Vector, video *domain.VideoRecord) {
	seconds := video.DurationSeconds

	v["duration_seconds"] = float64(seconds)
	v["duration_minutes"] = float64(seconds) / 60
	v["duration_hours"] = float64(seconds) / 3600
	v["is_short"] = boolFeature(video.IsShort())
	v["is_longform"] = boolFeature(!video.IsShort())
	v["duration_category"] = float64(DurationCategoryIndex(seconds))
	v["is_popular_category"] = boolFeature(popularCategories[video.CategoryID])
}

func (p *Pipeline) temporalFeatures(v Vector, video *domain.VideoRecord) {
	at := video.PublishedAt

	v["publish_hour"] = float64(at.Hour())
	v["publish_day_of_week"] = float64(at.Weekday())
	v["publish_month"] = float64(at.Month())
	v["is_weekend"] = boolFeature(isWeekend(at.Weekday()))
	v["is_peak_hour"] = boolFeature(isPeakHour(at.Hour()))
	v["time_of_day"] = float64(TimeOfDayIndex(at.Hour()))
	v["season"] = float64(SeasonIndex(at.Month()))
}

func (p *Pipeline) textFeatures(v Vector, video *domain.VideoRecord) {
	title := video.Title
	desc := video.Description

	v["title_length"] = float64(len(title))
	v["title_word_count"] = float64(wordCount(title))
	v["title_has_question"] = boolFeature(strings.Contains(title, "?"))
	v["title_has_exclamation"] = boolFeature(strings.Contains(title, "!"))
	v["title_caps_ratio"] = capsRatio(title)
	v["clickbait_score"] = float64(clickbaitScore(title))

	v["description_length"] = float64(len(desc))
	v["description_word_count"] = float64(wordCount(desc))

	urls, hashtags, mentions := tokenCounts(desc)
	v["description_url_count"] = float64(urls)
	v["description_hashtag_count"] = float64(hashtags)
	v["description_mention_count"] = float64(mentions)
}

func (p *Pipeline) channelFeatures(v Vector, channel *domain.ChannelRecord) {
	if channel == nil {
		v["channel_subscribers"] = 0
		v["channel_video_count"] = 0
		v["channel_view_count"] = 0
		v["authority_score"] = 0
		v["subscriber_category"] = 0
		v["videos_per_subscriber"] = 0
		v["upload_activity"] = 0
		return
	}

	v["channel_subscribers"] = float64(channel.SubscriberCount)
	v["channel_video_count"] = float64(channel.VideoCount)
	v["channel_view_count"] = float64(channel.ViewCount)
	v["authority_score"] = AuthorityScore(channel.SubscriberCount, channel.VideoCount)
	v["subscriber_category"] = float64(SubscriberCategoryIndex(channel.SubscriberCount))
	v["videos_per_subscriber"] = videosPerSubscriber(channel.VideoCount, channel.SubscriberCount)
	v["upload_activity"] = float64(UploadActivityIndex(channel.VideoCount))
}

func (p *Pipeline) tagFeatures(v Vector, video *domain.VideoRecord) {
	v["tag_count"] = float64(len(video.Tags))
	v["has_tech_tags"] = boolFeature(anyTagMatches(video.Tags, techTagKeywords))
	v["has_entertainment_tags"] = boolFeature(anyTagMatches(video.Tags, entertainmentTagKeywords))
	v["has_education_tags"] = boolFeature(anyTagMatches(video.Tags, educationTagKeywords))
}

func (p *Pipeline) localeFeatures(v Vector, video *domain.VideoRecord) {
	combined := video.Title + " " + video.Description + " " + strings.Join(video.Tags, " ")
	signals := DetectLocale(combined)

	v["lanka_keyword_count"] = float64(signals.KeywordCount)
	v["has_sinhala_script"] = boolFeature(signals.HasSinhala)
	v["has_tamil_script"] = boolFeature(signals.HasTamil)
	v["has_local_script"] = boolFeature(signals.HasLocalScript())
	v["location_mention_count"] = float64(signals.LocationMentions)
	v["cultural_keyword_count"] = float64(signals.CulturalCount)
	v["food_keyword_count"] = float64(signals.FoodCount)
	v["locale_content_score"] = signals.Score()
	v["is_local_content"] = boolFeature(signals.IsLocalContent())
}

func (p *Pipeline) engagementFeatures(v Vector, video *domain.VideoRecord) {
	views := video.ViewCount
	if views < 1 {
		views = 1
	}

	v["engagement_rate"] = float64(video.LikeCount+video.CommentCount) / float64(views)
	v["like_view_ratio"] = float64(video.LikeCount) / float64(views)
	v["comment_view_ratio"] = float64(video.CommentCount) / float64(views)
}

func (p *Pipeline) historyFeatures(v Vector, hist *History) {
	if hist == nil {
		v["avg_growth_rate"] = 0
		v["growth_momentum"] = domain.MomentumNeutral
		v["anomaly_count"] = 0
		v["snapshot_count"] = 0
		return
	}

	v["avg_growth_rate"] = hist.AvgGrowthRate
	v["growth_momentum"] = hist.Momentum
	v["anomaly_count"] = float64(hist.AnomalyCount)
	v["snapshot_count"] = float64(hist.SnapshotCount)
}

func (p *Pipeline) interactionFeatures(v Vector) {
	v["authority_x_short"] = v["authority_score"] * v["is_short"]
	v["weekend_x_short"] = v["is_weekend"] * v["is_short"]
	v["peak_x_popular_category"] = v["is_peak_hour"] * v["is_popular_category"]
	v["locale_x_evening"] = v["locale_content_score"] * boolFeature(v["time_of_day"] == 3)
}

// Fit computes dataset-level means/stds per numeric feature and category
// frequencies for the bucketed features. These statistics exist for
// introspection and analysis only; Transform never depends on them.
func (p *Pipeline) Fit(videos []*domain.VideoRecord, channels map[string]*domain.ChannelRecord) error {
	if len(videos) == 0 {
		return &domain.ConfigurationError{Reason: "cannot fit pipeline on an empty dataset"}
	}

	sums := make(map[string]float64)
	sqSums := make(map[string]float64)
	freqs := map[string]map[string]float64{
		"duration_category":   {},
		"subscriber_category": {},
		"time_of_day":         {},
		"season":              {},
		"upload_activity":     {},
	}

	for _, video := range videos {
		channel := channels[video.ChannelID]
		vec := p.Transform(video, channel)

		for name, val := range vec {
			sums[name] += val
			sqSums[name] += val * val
		}

		freqs["duration_category"][DurationCategory(video.DurationSeconds)]++
		freqs["time_of_day"][TimeOfDay(video.PublishedAt.Hour())]++
		freqs["season"][Season(video.PublishedAt.Month())]++
		if channel != nil {
			freqs["subscriber_category"][SubscriberCategory(channel.SubscriberCount)]++
			freqs["upload_activity"][UploadActivity(channel.VideoCount)]++
		}
	}

	n := float64(len(videos))
	stats := &Stats{
		SampleCount:   len(videos),
		Means:         make(map[string]float64, len(sums)),
		Stds:          make(map[string]float64, len(sums)),
		CategoryFreqs: freqs,
	}

	for name, sum := range sums {
		m := sum / n
		stats.Means[name] = m

		variance := sqSums[name]/n - m*m
		if variance < 0 {
			variance = 0
		}
		stats.Stds[name] = math.Sqrt(variance)
	}

	for _, freq := range freqs {
		for label := range freq {
			freq[label] /= n
		}
	}

	p.stats = stats

	return nil
}

// FeatureNames returns the sorted names of every feature Transform emits.
// The schema is fixed: it does not depend on the input record.
func FeatureNames() []string {
	vec := New().Transform(&domain.VideoRecord{DurationSeconds: 1}, nil)

	names := make([]string, 0, len(vec))
	for name := range vec {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
