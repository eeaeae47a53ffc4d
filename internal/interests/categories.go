// Package interests groups free-text research interests into broad categories.
package interests

import "strings"

// Categories maps a category name to its lowercase keywords.
var Categories = map[string][]string{
	"Artificial Intelligence": {
		"machine learning", "deep learning", "neural networks", "ai",
		"computer vision", "natural language processing", "nlp",
	},
	"Data Science": {
		"data analysis", "data mining", "big data", "statistics", "data visualization",
	},
	"Software Engineering": {
		"web development", "frontend", "backend", "mobile app development",
		"software architecture", "software testing",
	},
	"Cybersecurity": {
		"network security", "information security", "cryptography",
		"ethical hacking", "penetration testing",
	},
	"Computer Networks": {
		"networking", "wireless communication", "iot", "cloud networking", "network protocols",
	},
	"Database Systems": {
		"sql", "nosql", "database design", "data modeling", "mongodb", "mysql",
	},
	"Human-Computer Interaction": {
		"ui design", "ux design", "usability testing", "interaction design", "user experience",
	},
}

var keywordIndex = buildIndex(Categories)

func buildIndex(categories map[string][]string) map[string]string {
	idx := make(map[string]string)
	for category, keywords := range categories {
		for _, kw := range keywords {
			idx[strings.ToLower(kw)] = category
		}
	}
	return idx
}

// MapToCategory returns the category whose keyword list contains interest, ignoring
// case and surrounding space. Unknown interests are returned unchanged.
func MapToCategory(interest string) string {
	if category, ok := keywordIndex[strings.ToLower(strings.TrimSpace(interest))]; ok {
		return category
	}
	return interest
}

// MapInterestListToCategories maps every interest and drops duplicates, keeping first-seen order.
func MapInterestListToCategories(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, interest := range list {
		category := MapToCategory(interest)
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}
