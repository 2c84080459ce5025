package usecase

// englishStopWords includes basic English stop words plus listing noise
// seen on EU motorcycle-parts sites
var englishStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "are": true,

	// Retail/marketing noise
	"new": true, "sale": true, "offer": true, "free": true,
	"shipping": true, "delivery": true, "genuine": true, "original": true,
	"official": true, "edition": true, "series": true,

	// Size/colour filler that varies per listing, not per product
	"size": true, "sizes": true, "colour": true, "color": true,
	"black": true, "white": true, "red": true, "blue": true,
}

// turkishStopWords includes basic Turkish stop words plus listing noise
// seen on Turkish motorcycle-parts sites
var turkishStopWords = map[string]bool{
	// Basic Turkish stop words
	"ve": true, "ile": true, "icin": true, "bir": true, "bu": true,
	"da": true, "de": true, "mi": true, "gibi": true, "olan": true,

	// Retail/marketing noise (accent-folded forms; tokens are folded
	// before the stopword check)
	"yeni": true, "indirim": true, "indirimli": true, "kampanya": true,
	"orijinal": true, "resmi": true, "ucretsiz": true, "kargo": true,
	"firsat": true, "stokta": true,

	// Size/colour filler
	"beden": true, "renk": true, "siyah": true, "beyaz": true,
	"kirmizi": true, "mavi": true,
}

// stopWordsFor selects the stopword set by the source site's language hint
func stopWordsFor(language string) map[string]bool {
	if language == "tr" {
		return turkishStopWords
	}
	return englishStopWords
}
