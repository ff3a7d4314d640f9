package features

import (
	"math"
	"testing"
)

func TestCapsRatio(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"12345 !!!", 0},
		{"hello", 0},
		{"HELLO", 1},
		{"Hello", 0.2},
	}

	for _, tt := range tests {
		if got := capsRatio(tt.text); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("capsRatio(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClickbaitScore(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Calm cooking tutorial", 0},
		{"You Won't Believe This SHOCKING Secret", 3},
		{"TOP 10 insane plays", 2},
	}

	for _, tt := range tests {
		if got := clickbaitScore(tt.title); got != tt.want {
			t.Errorf("clickbaitScore(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestTokenCounts(t *testing.T) {
	desc := "Watch more at https://example.com and www.example.org #travel #srilanka thanks @editor"

	urls, hashtags, mentions := tokenCounts(desc)
	if urls != 2 {
		t.Errorf("urls = %d, want 2", urls)
	}
	if hashtags != 2 {
		t.Errorf("hashtags = %d, want 2", hashtags)
	}
	if mentions != 1 {
		t.Errorf("mentions = %d, want 1", mentions)
	}
}

func TestAnyTagMatches(t *testing.T) {
	tags := []string{"Unboxing Day", "fun"}

	if !anyTagMatches(tags, techTagKeywords) {
		t.Error("unboxing tag not matched as tech")
	}
	if anyTagMatches(tags, educationTagKeywords) {
		t.Error("tags wrongly matched as education")
	}
	if anyTagMatches(nil, techTagKeywords) {
		t.Error("empty tag list matched")
	}
}
