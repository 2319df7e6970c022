package knowledge

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

// SearchOptions narrows and tunes one search call. Zero MaxNodes and nil
// Threshold fall back to Scoring.
type SearchOptions struct {
	MaxNodes         int
	Threshold        *float64
	SourceTypes      []DocType
	JDRequiredSkills []string
	Scoring          *Scoring
	Now              time.Time
}

// Search scores nodes against query and returns at most MaxNodes results
// scoring strictly above Threshold, best first. A missing or failing embed
// drops the similarity term only.
func Search(ctx context.Context, query string, nodes []Node, embed EmbedFunc, opts SearchOptions) []ScoredNode {
	sc := DefaultScoring()
	if opts.Scoring != nil {
		sc = *opts.Scoring
	}
	maxNodes := sc.MaxNodes
	if opts.MaxNodes > 0 {
		maxNodes = opts.MaxNodes
	}
	threshold := sc.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var queryVec []float32
	if embed != nil && strings.TrimSpace(query) != "" {
		v, err := embed(ctx, query)
		if err != nil {
			slog.Debug("search: query embed failed, keyword scoring only", slog.Any("error", err))
		} else {
			queryVec = v
		}
	}

	keywords := QueryKeywords(query)
	skills := lowerAll(opts.JDRequiredSkills)
	cutoffYear := now.Year() - sc.RecencyYears

	var scored []ScoredNode
	for _, n := range nodes {
		if len(opts.SourceTypes) > 0 && !slices.Contains(opts.SourceTypes, n.SourceType) {
			continue
		}
		s := 0.0
		if len(queryVec) > 0 && n.HasEmbedding() {
			s += sc.Similarity * CosineSimilarity(n.Embedding, queryVec)
		}
		if matchesKeyword(keywords, n.Tags) {
			s += sc.Keyword
		}
		if n.DurationMonths > sc.MinDurationMonths {
			s += sc.Duration
		}
		if isRecent(n.EndDate, cutoffYear) {
			s += sc.Recency
		}
		if n.SourceType == DocResume && hasRequiredSkill(skills, n) {
			s += sc.JDSkill
		}
		if s > threshold {
			scored = append(scored, ScoredNode{Node: n, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxNodes {
		scored = scored[:maxNodes]
	}
	return scored
}

// CosineSimilarity returns 0 for mismatched lengths, empty or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func matchesKeyword(keywords, tags []string) bool {
	for _, k := range keywords {
		for _, t := range tags {
			if strings.Contains(t, k) {
				return true
			}
		}
	}
	return false
}

// isRecent is true for ongoing nodes and nodes ending in cutoffYear or later.
// The window counts calendar years, so any month of cutoffYear qualifies.
// Undated nodes count as ongoing.
func isRecent(end string, cutoffYear int) bool {
	if strings.TrimSpace(end) == "" {
		return true
	}
	idx, ok := monthIndex(end)
	return ok && idx/12 >= cutoffYear
}

func hasRequiredSkill(skills []string, n Node) bool {
	if len(skills) == 0 {
		return false
	}
	text := strings.ToLower(n.TextContent)
	for _, s := range skills {
		if strings.Contains(text, s) || slices.Contains(n.Tags, s) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
