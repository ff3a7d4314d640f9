package features

import "strings"

// LocaleSignals holds the Sri-Lankan content signals extracted from a
// video's combined text.
type LocaleSignals struct {
	KeywordCount     int
	LocationMentions int
	CulturalCount    int
	FoodCount        int
	HasSinhala       bool
	HasTamil         bool
}

// HasLocalScript reports whether either local script was detected.
func (s LocaleSignals) HasLocalScript() bool {
	return s.HasSinhala || s.HasTamil
}

// Score aggregates the signals into the locale content score.
//
// Formula: 2*keywords + 3*has_local_script + 2*locations + cultural + food
func (s LocaleSignals) Score() float64 {
	score := 2*float64(s.KeywordCount) +
		2*float64(s.LocationMentions) +
		float64(s.CulturalCount) +
		float64(s.FoodCount)
	if s.HasLocalScript() {
		score += 3
	}

	return score
}

// IsLocalContent is true iff at least one general keyword matched.
func (s LocaleSignals) IsLocalContent() bool {
	return s.KeywordCount > 0
}

// DetectLocale scans text for Sri-Lankan keyword, location, cultural,
// food and script signals. Matching is case-insensitive; each table
// entry counts at most once.
func DetectLocale(text string) LocaleSignals {
	lower := strings.ToLower(text)

	signals := LocaleSignals{
		KeywordCount:     matchCount(lower, lankaKeywords),
		LocationMentions: matchCount(lower, lankaPlaces),
		CulturalCount:    matchCount(lower, lankaCulturalKeywords),
		FoodCount:        matchCount(lower, lankaFoodKeywords),
	}

	for _, r := range text {
		switch {
		case r >= sinhalaRangeStart && r <= sinhalaRangeEnd:
			signals.HasSinhala = true
		case r >= tamilRangeStart && r <= tamilRangeEnd:
			signals.HasTamil = true
		}
		if signals.HasSinhala && signals.HasTamil {
			break
		}
	}

	return signals
}
