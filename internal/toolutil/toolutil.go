// Package toolutil provides shared helpers for the research pipeline and MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_kb/internal/engine"
)

// defaultFetchParallelism caps concurrent page fetches.
const defaultFetchParallelism = 4

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var out T
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(cached, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("cache store: marshal failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	engine.CacheSet(ctx, key, data)
}

// FetchFunc fetches one page. engine.FetchPage satisfies it.
type FetchFunc func(ctx context.Context, url string) (*engine.Page, error)

// FetchURLsParallel fetches the first limit results (all when limit <= 0),
// skipping URLs in skipURLs. Returns a map of url → markdown. Failed fetches
// are logged and omitted.
func FetchURLsParallel(ctx context.Context, results []engine.SearxngResult, skipURLs map[string]bool, limit int, fetch FetchFunc) map[string]string {
	if fetch == nil {
		fetch = engine.FetchPage
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	contents := make(map[string]string, len(results))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchParallelism)

	for _, r := range results {
		if r.URL == "" || skipURLs[r.URL] {
			continue
		}
		u := r.URL
		g.Go(func() error {
			page, err := fetch(gctx, u)
			if err != nil {
				slog.Debug("fetch failed", slog.String("url", u), slog.Any("error", err))
				return nil
			}
			if page == nil || page.Markdown == "" {
				return nil
			}
			mu.Lock()
			contents[u] = page.Markdown
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return contents
}
