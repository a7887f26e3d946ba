package scoring

import "strings"

// Categories is the closed category vocabulary, in padding order.
var Categories = []string{
	"Technology", "Business", "Finance", "Science", "Health", "Politics",
	"Education", "Entertainment", "Sports", "Travel", "Food", "Art",
	"Environment", "History", "Literature", "Social Media", "News",
}

// categoryKeywords is scanned in order; the first three distinct categories win.
var categoryKeywords = []struct{ keyword, category string }{
	{"tech", "Technology"}, {"software", "Technology"}, {"app", "Technology"}, {"computer", "Technology"},
	{"business", "Business"}, {"company", "Business"}, {"market", "Business"}, {"industry", "Business"},
	{"money", "Finance"}, {"invest", "Finance"}, {"bank", "Finance"}, {"stock", "Finance"},
	{"research", "Science"}, {"scientist", "Science"}, {"study", "Science"}, {"experiment", "Science"},
	{"health", "Health"}, {"medical", "Health"}, {"doctor", "Health"}, {"patient", "Health"},
	{"government", "Politics"}, {"election", "Politics"}, {"policy", "Politics"}, {"president", "Politics"},
	{"school", "Education"}, {"learn", "Education"}, {"student", "Education"}, {"teacher", "Education"},
	{"movie", "Entertainment"}, {"music", "Entertainment"}, {"celebrity", "Entertainment"}, {"game", "Entertainment"},
	{"team", "Sports"}, {"player", "Sports"}, {"match", "Sports"}, {"tournament", "Sports"},
	{"trip", "Travel"}, {"destination", "Travel"}, {"hotel", "Travel"}, {"vacation", "Travel"},
	{"recipe", "Food"}, {"restaurant", "Food"}, {"cook", "Food"}, {"ingredient", "Food"},
	{"painting", "Art"}, {"museum", "Art"}, {"artist", "Art"}, {"gallery", "Art"},
	{"climate", "Environment"}, {"pollution", "Environment"}, {"sustainable", "Environment"}, {"nature", "Environment"},
	{"historical", "History"}, {"century", "History"}, {"ancient", "History"}, {"heritage", "History"},
	{"book", "Literature"}, {"author", "Literature"}, {"novel", "Literature"}, {"poem", "Literature"},
	{"social", "Social Media"}, {"platform", "Social Media"}, {"online", "Social Media"}, {"profile", "Social Media"},
	{"report", "News"}, {"headline", "News"}, {"journalist", "News"}, {"media", "News"},
}

const (
	minCategories = 2
	maxCategories = 3
)

// categorize returns two or three categories for text.
func categorize(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0, maxCategories)
	has := func(c string) bool {
		for _, o := range out {
			if o == c {
				return true
			}
		}
		return false
	}
	for _, kc := range categoryKeywords {
		if len(out) == maxCategories {
			break
		}
		if !has(kc.category) && strings.Contains(lower, kc.keyword) {
			out = append(out, kc.category)
		}
	}
	for _, c := range Categories {
		if len(out) >= minCategories {
			break
		}
		if !has(c) {
			out = append(out, c)
		}
	}
	return out
}
