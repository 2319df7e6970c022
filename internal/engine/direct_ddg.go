package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ddgHTMLURL is the DuckDuckGo HTML lite endpoint; tests point it at httptest.
var ddgHTMLURL = "https://html.duckduckgo.com/html/"

// SearchDDG queries the DuckDuckGo HTML lite endpoint. It is the fallback
// when SearXNG is unreachable or returns nothing. Its signature matches
// SearchSearXNG; timeRange is ignored.
func SearchDDG(ctx context.Context, query, language, _ string) ([]SearxngResult, error) {
	region := "wt-wt"
	if language != "" && language != "all" {
		region = language
	}
	metrics.DDGRequests.Add(1)

	form := url.Values{"q": {query}, "kl": {region}, "df": {""}}
	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ddgHTMLURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgentBot)
		req.Header.Set("Referer", "https://html.duckduckgo.com/")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("ddg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ddg html status %d", resp.StatusCode)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("ddg: read: %w", err)
	}
	results, err := parseDDGHTML(body)
	if err != nil {
		return nil, err
	}
	slog.Debug("ddg results", slog.Int("count", len(results)))
	return results, nil
}

// parseDDGHTML extracts search results from DDG HTML lite response.
func parseDDGHTML(data []byte) ([]SearxngResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var results []SearxngResult
	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if !exists || title == "" {
			return
		}

		// DDG wraps URLs in redirects.
		href = ddgUnwrapURL(href)
		if href == "" {
			return
		}

		snippet := s.Find(".result__snippet, .result__body").First()
		results = append(results, SearxngResult{
			Title:   title,
			Content: strings.TrimSpace(snippet.Text()),
			URL:     href,
			Score:   1.0,
		})
	})
	return results, nil
}

// ddgUnwrapURL extracts the actual URL from DDG redirect wrappers.
// DDG HTML wraps links as: //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
func ddgUnwrapURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
