package knowledge

import (
	"regexp"
	"strings"
)

var tagStrip = regexp.MustCompile(`[^a-z0-9\s\-\.\/\+\#]`)

// stopWords filters common English words that add noise to keyword matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "did": true,
	"does": true, "tell": true, "describe": true, "would": true, "could": true,
	"should": true, "why": true, "when": true, "where": true, "there": true,
	"any": true, "some": true, "time": true, "give": true, "example": true,
	"whats": true, "youre": true, "dont": true,
}

// tokenize lower-cases, strips disallowed characters and keeps tokens longer
// than two characters.
func tokenize(text string) []string {
	clean := tagStrip.ReplaceAllString(strings.ToLower(text), "")
	fields := strings.Fields(clean)
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// ExtractTags returns the unigrams and adjacent bigrams of the given text
// parts, deduped in first-seen order.
func ExtractTags(parts ...string) []string {
	tokens := tokenize(strings.Join(parts, " "))
	seen := make(map[string]bool, len(tokens)*2)
	tags := make([]string, 0, len(tokens)*2)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	for _, t := range tokens {
		add(t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i] + " " + tokens[i+1])
	}
	return tags
}

// QueryKeywords extracts the matchable keywords of a question.
func QueryKeywords(query string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tokenize(query) {
		t = strings.Trim(t, ".-/")
		if len(t) <= 2 || stopWords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
