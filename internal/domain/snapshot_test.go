package domain

import (
	"math"
	"testing"
	"time"
)

const floatTolerance = 0.1

func testVideo() *VideoRecord {
	return &VideoRecord{
		ID:              "vid-1",
		ChannelID:       "chan-1",
		Title:           "Test Video",
		DurationSeconds: 300,
		PublishedAt:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func readingsAt(video *VideoRecord, points []struct {
	hours float64
	views int64
}) []Reading {
	readings := make([]Reading, 0, len(points))
	for _, p := range points {
		readings = append(readings, Reading{
			CapturedAt: video.PublishedAt.Add(time.Duration(p.hours * float64(time.Hour))),
			ViewCount:  p.views,
		})
	}

	return readings
}

func TestTracker_Enrich_FirstSnapshotHasNoGrowth(t *testing.T) {
	video := testVideo()
	tracker := NewTracker(0, 0)

	snaps, err := tracker.Enrich(video, []Reading{
		{CapturedAt: video.PublishedAt.Add(time.Hour), ViewCount: 500},
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("Enrich() returned %d snapshots, want 1", len(snaps))
	}

	s := snaps[0]
	if s.ViewGrowthRate != nil {
		t.Errorf("first snapshot ViewGrowthRate = %v, want nil", *s.ViewGrowthRate)
	}
	if s.ViewsSinceLast != nil {
		t.Errorf("first snapshot ViewsSinceLast = %v, want nil", *s.ViewsSinceLast)
	}
	if math.Abs(s.HoursSincePublished-1) > floatTolerance {
		t.Errorf("HoursSincePublished = %v, want 1", s.HoursSincePublished)
	}
}

func TestTracker_Enrich_GrowthRateScenario(t *testing.T) {
	// t=0h 1000 views, t=6h 1500, t=24h 3000, t=48h 9000
	// rates: 500/6 ≈ 83.3, 1500/18 ≈ 83.3, 6000/24 = 250
	video := testVideo()
	tracker := NewTracker(0, 0)

	readings := readingsAt(video, []struct {
		hours float64
		views int64
	}{
		{0.001, 1000}, // strictly after publish
		{6, 1500},
		{24, 3000},
		{48, 9000},
	})

	snaps, err := tracker.Enrich(video, readings)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	wantRates := []float64{83.3, 83.3, 250}
	for i, want := range wantRates {
		s := snaps[i+1]
		if s.ViewGrowthRate == nil {
			t.Fatalf("snapshot %d ViewGrowthRate = nil, want %.1f", i+1, want)
		}
		if math.Abs(*s.ViewGrowthRate-want) > 0.5 {
			t.Errorf("snapshot %d ViewGrowthRate = %.2f, want %.1f", i+1, *s.ViewGrowthRate, want)
		}
	}

	// Prior rates (83.3, 83.3) have zero spread, so the z-score rule
	// cannot fire on the 48h point; 250 is a plain high rate, not an
	// annotated anomaly.
	if snaps[3].IsAnomaly {
		t.Error("48h snapshot flagged anomalous with zero prior rate spread")
	}
}

func TestTracker_Enrich_NegativeDropFlagged(t *testing.T) {
	video := testVideo()
	tracker := NewTracker(0, 0)

	readings := readingsAt(video, []struct {
		hours float64
		views int64
	}{
		{1, 1000},
		{2, 2000},
		{3, 1500}, // drop of 500 > guard of 100
	})

	snaps, err := tracker.Enrich(video, readings)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if !snaps[2].IsAnomaly {
		t.Error("snapshot with view drop of 500 not flagged anomalous")
	}
	if snaps[2].ViewsSinceLast == nil || *snaps[2].ViewsSinceLast != -500 {
		t.Errorf("ViewsSinceLast = %v, want -500", snaps[2].ViewsSinceLast)
	}
}

func TestTracker_Enrich_ZScoreSpike(t *testing.T) {
	video := testVideo()
	tracker := NewTracker(10, 3.0)

	// Steady ~100/h with slight jitter, then a 100x spike.
	points := []struct {
		hours float64
		views int64
	}{
		{1, 100}, {2, 201}, {3, 299}, {4, 402}, {5, 500}, {6, 601}, {7, 10601},
	}

	snaps, err := tracker.Enrich(video, readingsAt(video, points))
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	last := snaps[len(snaps)-1]
	if !last.IsAnomaly {
		t.Errorf("spike rate %.0f/h not flagged against steady history", *last.ViewGrowthRate)
	}

	for _, s := range snaps[:len(snaps)-1] {
		if s.IsAnomaly {
			t.Errorf("steady snapshot at %.0fh wrongly flagged", s.HoursSincePublished)
		}
	}
}

func TestTracker_Enrich_OutOfOrderRejected(t *testing.T) {
	video := testVideo()
	tracker := NewTracker(0, 0)

	readings := []Reading{
		{CapturedAt: video.PublishedAt.Add(2 * time.Hour), ViewCount: 100},
		{CapturedAt: video.PublishedAt.Add(1 * time.Hour), ViewCount: 200},
	}

	_, err := tracker.Enrich(video, readings)
	if err == nil {
		t.Fatal("Enrich() accepted out-of-order timestamps")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Enrich() error type = %T, want *ValidationError", err)
	}
}

func TestTracker_Enrich_DuplicateTimestampRejected(t *testing.T) {
	video := testVideo()
	tracker := NewTracker(0, 0)

	at := video.PublishedAt.Add(time.Hour)
	_, err := tracker.Enrich(video, []Reading{
		{CapturedAt: at, ViewCount: 100},
		{CapturedAt: at, ViewCount: 200},
	})
	if err == nil {
		t.Fatal("Enrich() accepted duplicate timestamps")
	}
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
		want  float64
	}{
		{
			name:  "insufficient history returns neutral",
			rates: []float64{10, 20, 30},
			want:  MomentumNeutral,
		},
		{
			name:  "zero earlier average returns neutral",
			rates: []float64{0, 10, 20, 30},
			want:  MomentumNeutral,
		},
		{
			name: "accelerating growth",
			// earlier avg = 10, recent avg = (40+40+40)/3 = 40 → 40/10/2 = 2 → clamp 1
			rates: []float64{10, 40, 40, 40},
			want:  1,
		},
		{
			name: "steady growth is neutral-ish",
			// earlier avg = 100, recent avg = 100 → 100/100/2 = 0.5
			rates: []float64{100, 100, 100, 100},
			want:  0.5,
		},
		{
			name: "decelerating growth",
			// earlier avg = 100, recent avg = 25 → 25/100/2 = 0.125
			rates: []float64{100, 25, 25, 25},
			want:  0.125,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Momentum(tt.rates)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Momentum(%v) = %v, want %v", tt.rates, got, tt.want)
			}
		})
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		rate float64
		want PerformanceTier
	}{
		{0, TierStagnant},
		{0.9, TierStagnant},
		{1, TierLow},
		{9.9, TierLow},
		{10, TierMedium},
		{99, TierMedium},
		{100, TierHigh},
		{999, TierHigh},
		{1000, TierViral},
		{50000, TierViral},
	}

	for _, tt := range tests {
		if got := Tier(tt.rate); got != tt.want {
			t.Errorf("Tier(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestEngagementRate_ZeroViews(t *testing.T) {
	// max(views, 1) guard: zero views must not divide by zero.
	got := engagementRate(Reading{ViewCount: 0, LikeCount: 3, CommentCount: 2})
	if got != 5 {
		t.Errorf("engagementRate with zero views = %v, want 5", got)
	}
}

func TestRateRing_Bounded(t *testing.T) {
	ring := newRateRing(3)
	for i := 1; i <= 5; i++ {
		ring.push(float64(i))
	}

	got := ring.values()
	want := []float64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("values() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("values()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
