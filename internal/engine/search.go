package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrSearchNotConfigured is returned when SEARXNG_URL is empty.
var ErrSearchNotConfigured = errors.New("searxng url not configured")

// SearchSearXNG queries the SearXNG instance and returns raw results.
func SearchSearXNG(ctx context.Context, query, language, timeRange string) ([]SearxngResult, error) {
	if cfg.SearxngURL == "" {
		return nil, ErrSearchNotConfigured
	}
	u, err := url.Parse(strings.TrimRight(cfg.SearxngURL, "/") + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	if language != "" && language != "all" {
		q.Set("language", language)
	}
	if timeRange != "" {
		q.Set("time_range", timeRange)
	}
	u.RawQuery = q.Encode()

	metrics.SearchRequests.Add(1)

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgentBot)
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng: status %d", resp.StatusCode)
	}

	var data searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("searxng: decode: %w", err)
	}
	return data.Results, nil
}

// FilterByScore removes results below minScore, keeping at least minKeep.
func FilterByScore(results []SearxngResult, minScore float64, minKeep int) []SearxngResult {
	var out []SearxngResult
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	if len(out) >= minKeep {
		return out
	}
	if len(results) >= minKeep {
		return results[:minKeep]
	}
	return results
}

// DedupByDomain limits results to maxPerDomain per domain and drops
// duplicate URLs.
func DedupByDomain(results []SearxngResult, maxPerDomain int) []SearxngResult {
	counts := make(map[string]int)
	seen := make(map[string]bool)
	var out []SearxngResult
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		u, err := url.Parse(r.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		domain := u.Hostname()
		if counts[domain] < maxPerDomain {
			out = append(out, r)
			counts[domain]++
			seen[r.URL] = true
		}
	}
	return out
}

// BuildSourcesText formats search results and their fetched content for LLM
// context. Results with fetched content show it instead of the snippet.
func BuildSourcesText(results []SearxngResult, contents map[string]string, contentLimit int) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "\n[%d] %s\nURL: %s\n", i+1, r.Title, r.URL)
		if c := contents[r.URL]; c != "" {
			fmt.Fprintf(&sb, "Content: %s\n", TruncateRunes(c, contentLimit, "..."))
			continue
		}
		if r.Content != "" {
			fmt.Fprintf(&sb, "Snippet: %s\n", r.Content)
		}
	}
	return sb.String()
}
