package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"
)

// maxPageBytes bounds how much of a page body is read.
const maxPageBytes = 4 << 20

// removeSelectors are stripped before conversion; they carry no company facts.
var removeSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "form",
	"header", "footer", "nav", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	".cookie-banner", ".advertisement", ".sidebar", ".comments",
}

// FetchPage downloads rawURL and returns its main content as markdown,
// capped at MaxContentChars runes.
func FetchPage(ctx context.Context, rawURL string) (page *Page, err error) {
	metrics.FetchRequests.Add(1)
	defer func() {
		if err != nil {
			metrics.FetchErrors.Add(1)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	resp, err := fetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read: %w", rawURL, err)
	}

	title, md, err := HTMLToMarkdown(string(body))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: convert: %w", rawURL, err)
	}

	page = &Page{URL: rawURL, Title: title, Markdown: md}
	if limit := cfg.MaxContentChars; limit > 0 && len([]rune(md)) > limit {
		page.Markdown = TruncateRunes(md, limit, "...")
		page.Truncated = true
	}
	return page, nil
}

// HTMLToMarkdown drops page chrome with goquery and converts the remaining
// body to markdown.
func HTMLToMarkdown(html string) (title, markdown string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find("meta[property='og:title']").Attr("content")
	}

	for _, sel := range removeSelectors {
		doc.Find(sel).Remove()
	}

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	inner, err := root.Html()
	if err != nil {
		return title, "", err
	}

	md, err := htmltomarkdown.ConvertString(inner)
	if err != nil {
		return title, CollapseWhitespace(CleanHTML(inner)), nil
	}
	return title, CollapseWhitespace(md), nil
}

// fetchWithRetry performs an HTTP GET with retry logic using exponential backoff.
func fetchWithRetry(ctx context.Context, fetchURL string) (*http.Response, error) {
	operation := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgentBot)
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			var urlErr interface{ Timeout() bool }
			if errors.As(err, &urlErr) && urlErr.Timeout() {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		if IsRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(20*time.Second))
}

// readResponseBody reads the response body, handling gzip decompression if needed.
func readResponseBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, maxPageBytes))
}
