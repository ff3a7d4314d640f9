package features

// Fixed lookup tables used by the pipeline. All of them are package-level
// immutable values built once at startup, never re-allocated per call.

// popularCategories is the allow-list of YouTube category codes that
// historically attract outsized traffic.
var popularCategories = map[string]bool{
	"10": true, // Music
	"17": true, // Sports
	"20": true, // Gaming
	"22": true, // People & Blogs
	"23": true, // Comedy
	"24": true, // Entertainment
}

// peakHours are the publish hours (24h clock) with the highest audience
// availability.
var peakHours = map[int]bool{
	12: true,
	17: true,
	18: true,
	19: true,
	20: true,
	21: true,
}

// clickbaitPhrases is the fixed phrase list matched against lowercased
// titles.
var clickbaitPhrases = []string{
	"you won't believe",
	"gone wrong",
	"shocking",
	"must watch",
	"exposed",
	"secret",
	"insane",
	"unbelievable",
	"what happens next",
	"top 10",
	"top 5",
	"life hack",
	"before it's deleted",
	"never seen before",
}

// Tag category keyword lists. Membership is substring-insensitive against
// lowercased tags.
var (
	techTagKeywords = []string{
		"tech", "technology", "gadget", "review", "unboxing", "programming",
		"coding", "software", "smartphone", "computer", "ai",
	}

	entertainmentTagKeywords = []string{
		"funny", "comedy", "prank", "entertainment", "music", "dance",
		"movie", "film", "song", "trailer", "vlog",
	}

	educationTagKeywords = []string{
		"tutorial", "education", "learn", "how to", "howto", "lesson",
		"course", "explained", "science", "history", "study",
	}
)

// Sri Lankan locale detection tables.
var (
	// lankaKeywords are general Sri-Lanka terms: the aggregate keyword
	// count drives is_local_content.
	lankaKeywords = []string{
		"sri lanka", "srilanka", "lanka", "sinhala", "tamil", "colombo",
		"ceylon", "lankan",
	}

	// lankaPlaces are specific locations counted as location mentions.
	lankaPlaces = []string{
		"colombo", "kandy", "galle", "jaffna", "negombo", "anuradhapura",
		"polonnaruwa", "trincomalee", "batticaloa", "matara", "kurunegala",
		"ratnapura", "badulla", "nuwara eliya", "sigiriya", "ella",
	}

	// lankaCulturalKeywords cover festivals, cricket and public figures.
	lankaCulturalKeywords = []string{
		"vesak", "poya", "avurudu", "perahera", "esala", "thai pongal",
		"cricket", "sangakkara", "jayawardene", "muralitharan", "malinga",
		"rajapaksa", "wickremesinghe", "premadasa", "bandaranaike",
	}

	// lankaFoodKeywords cover signature dishes.
	lankaFoodKeywords = []string{
		"kottu", "hoppers", "string hoppers", "pol sambol", "parippu",
		"lamprais", "watalappan", "kiribath", "pittu", "dhal curry",
		"fish ambul thiyal",
	}
)

// Unicode script ranges for the two local scripts.
const (
	sinhalaRangeStart = 0x0D80
	sinhalaRangeEnd   = 0x0DFF
	tamilRangeStart   = 0x0B80
	tamilRangeEnd     = 0x0BFF
)
