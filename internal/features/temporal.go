package features

import "time"

// Duration buckets (label, by seconds).
//
//	very_short: <= 60
//	short:      <= 300
//	medium:     <= 1200
//	long:       <= 3600
//	very_long:  >  3600
var durationCategoryLabels = []string{"very_short", "short", "medium", "long", "very_long"}

// DurationCategoryIndex buckets a duration in seconds into one of five
// categories and returns the bucket index.
func DurationCategoryIndex(seconds int) int {
	switch {
	case seconds <= 60:
		return 0
	case seconds <= 300:
		return 1
	case seconds <= 1200:
		return 2
	case seconds <= 3600:
		return 3
	default:
		return 4
	}
}

// DurationCategory returns the duration bucket label.
func DurationCategory(seconds int) string {
	return durationCategoryLabels[DurationCategoryIndex(seconds)]
}

// Time-of-day buckets (label, by publish hour).
var timeOfDayLabels = []string{"night", "morning", "afternoon", "evening"}

// TimeOfDayIndex buckets an hour (0-23) into night/morning/afternoon/evening.
func TimeOfDayIndex(hour int) int {
	switch {
	case hour < 6:
		return 0
	case hour < 12:
		return 1
	case hour < 18:
		return 2
	default:
		return 3
	}
}

// TimeOfDay returns the time-of-day bucket label.
func TimeOfDay(hour int) string {
	return timeOfDayLabels[TimeOfDayIndex(hour)]
}

// Regional season buckets follow the Sri Lankan monsoon calendar.
var seasonLabels = []string{
	"northeast_monsoon",     // Dec-Feb
	"first_inter_monsoon",   // Mar-Apr
	"southwest_monsoon",     // May-Sep
	"second_inter_monsoon",  // Oct-Nov
}

// SeasonIndex maps a publish month (1-12) to a regional season bucket.
func SeasonIndex(month time.Month) int {
	switch {
	case month == time.December || month <= time.February:
		return 0
	case month <= time.April:
		return 1
	case month <= time.September:
		return 2
	default:
		return 3
	}
}

// Season returns the regional season bucket label.
func Season(month time.Month) string {
	return seasonLabels[SeasonIndex(month)]
}

// isWeekend reports whether the weekday is Saturday or Sunday.
func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// isPeakHour reports whether the publish hour is in the fixed peak set.
func isPeakHour(hour int) bool {
	return peakHours[hour]
}
