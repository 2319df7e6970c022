package knowledge

import "strings"

// Intent routes a question to a context-assembly strategy.
type Intent string

const (
	IntentIntro           Intent = "intro"
	IntentCompanyResearch Intent = "company_research"
	IntentNegotiation     Intent = "negotiation"
	IntentTechnical       Intent = "technical"
	IntentGeneral         Intent = "general"
)

var introPatterns = []string{
	"tell me about yourself", "introduce yourself", "walk me through your resume",
	"walk me through your background", "describe yourself",
}

var negotiationPatterns = []string{
	"salary", "compensation", "pay range", "equity", "stock option", "bonus",
	"negotiat", "offer", "benefits", "rsu", "signing", "expected pay", "how much",
}

var companyPatterns = []string{
	"company", "culture", "competitor", "mission", "product", "funding",
	"why do you want to work", "why this company", "what do you know about",
	"values", "industry", "recent news", "market",
}

var technicalPatterns = []string{
	"design", "implement", "algorithm", "complexity", "architecture", "scale",
	"database", "system", "code", "debug", "api", "concurrency", "performance",
	"latency", "data structure", "trade-off", "tradeoff", "how would you",
	"explain", "optimi", "cache", "distributed",
}

// Classify maps a question to exactly one Intent. Intro phrases win outright;
// otherwise the intent with the most matched phrases wins, ties broken
// negotiation > company_research > technical.
func Classify(question string) Intent {
	q := strings.ToLower(question)
	if countMatches(q, introPatterns) > 0 {
		return IntentIntro
	}

	// Order is the tie-break priority.
	tally := []struct {
		intent Intent
		score  int
	}{
		{IntentNegotiation, countMatches(q, negotiationPatterns)},
		{IntentCompanyResearch, countMatches(q, companyPatterns)},
		{IntentTechnical, countMatches(q, technicalPatterns)},
	}
	best, bestScore := IntentGeneral, 0
	for _, t := range tally {
		if t.score > bestScore {
			best, bestScore = t.intent, t.score
		}
	}
	return best
}

// NeedsCompanyResearch is true for company-research and negotiation questions.
func NeedsCompanyResearch(question string) bool {
	switch Classify(question) {
	case IntentCompanyResearch, IntentNegotiation:
		return true
	}
	return false
}

func countMatches(q string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(q, p) {
			n++
		}
	}
	return n
}
