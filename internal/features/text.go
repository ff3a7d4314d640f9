package features

import (
	"strings"
	"unicode"
)

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// capsRatio returns the fraction of letters that are upper case.
// Returns 0 for text without letters.
func capsRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}

	return float64(upper) / float64(letters)
}

// clickbaitScore counts fixed clickbait phrase matches in a title.
func clickbaitScore(title string) int {
	lower := strings.ToLower(title)

	var count int
	for _, phrase := range clickbaitPhrases {
		if strings.Contains(lower, phrase) {
			count++
		}
	}

	return count
}

// tokenCounts counts URLs, hashtags and @-mentions in a description.
func tokenCounts(description string) (urls, hashtags, mentions int) {
	for _, field := range strings.Fields(description) {
		switch {
		case strings.HasPrefix(field, "http://"), strings.HasPrefix(field, "https://"), strings.HasPrefix(field, "www."):
			urls++
		case strings.HasPrefix(field, "#") && len(field) > 1:
			hashtags++
		case strings.HasPrefix(field, "@") && len(field) > 1:
			mentions++
		}
	}

	return urls, hashtags, mentions
}

// matchCount counts how many keywords from the list occur in the
// lowercased text. Each keyword counts at most once.
func matchCount(lowerText string, keywords []string) int {
	var count int
	for _, kw := range keywords {
		if strings.Contains(lowerText, kw) {
			count++
		}
	}

	return count
}

// anyTagMatches reports whether any tag contains any of the keywords.
func anyTagMatches(tags []string, keywords []string) bool {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}

	return false
}
