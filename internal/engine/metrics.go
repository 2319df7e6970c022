package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	LLMCalls          atomic.Int64
	LLMErrors         atomic.Int64
	EmbedCalls        atomic.Int64
	EmbedErrors       atomic.Int64
	SearchRequests    atomic.Int64
	DDGRequests       atomic.Int64
	FetchRequests     atomic.Int64
	FetchErrors       atomic.Int64
	IngestRequests    atomic.Int64
	IngestFailures    atomic.Int64
	NodesIndexed      atomic.Int64
	NodesUnembedded   atomic.Int64
	Queries           atomic.Int64
	ResearchRequests  atomic.Int64
	ResearchFailures  atomic.Int64
	DossierCacheHits  atomic.Int64
	DossierStaleHits  atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"llm_calls", "llm_errors",
	"embed_calls", "embed_errors",
	"searxng_requests", "ddg_requests", "fetch_requests", "fetch_errors",
	"ingest_requests", "ingest_failures",
	"nodes_indexed", "nodes_unembedded",
	"queries",
	"research_requests", "research_failures",
	"dossier_cache_hits", "dossier_stale_hits",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":          metrics.LLMCalls.Load(),
		"llm_errors":         metrics.LLMErrors.Load(),
		"embed_calls":        metrics.EmbedCalls.Load(),
		"embed_errors":       metrics.EmbedErrors.Load(),
		"searxng_requests":   metrics.SearchRequests.Load(),
		"ddg_requests":       metrics.DDGRequests.Load(),
		"fetch_requests":     metrics.FetchRequests.Load(),
		"fetch_errors":       metrics.FetchErrors.Load(),
		"ingest_requests":    metrics.IngestRequests.Load(),
		"ingest_failures":    metrics.IngestFailures.Load(),
		"nodes_indexed":      metrics.NodesIndexed.Load(),
		"nodes_unembedded":   metrics.NodesUnembedded.Load(),
		"queries":            metrics.Queries.Load(),
		"research_requests":  metrics.ResearchRequests.Load(),
		"research_failures":  metrics.ResearchFailures.Load(),
		"dossier_cache_hits": metrics.DossierCacheHits.Load(),
		"dossier_stale_hits": metrics.DossierStaleHits.Load(),
		"cache_hits":         hits,
		"cache_misses":       misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the knowledge and research sub-packages.
func IncrIngest()                { metrics.IngestRequests.Add(1) }
func IncrIngestFailure()         { metrics.IngestFailures.Add(1) }
func IncrQueries()               { metrics.Queries.Add(1) }
func IncrResearch()              { metrics.ResearchRequests.Add(1) }
func IncrResearchFailure()       { metrics.ResearchFailures.Add(1) }
func IncrDossierCacheHit()       { metrics.DossierCacheHits.Add(1) }
func IncrDossierStaleHit()       { metrics.DossierStaleHits.Add(1) }
func AddNodesIndexed(n int)      { metrics.NodesIndexed.Add(int64(n)) }
func AddNodesUnembedded(n int)   { metrics.NodesUnembedded.Add(int64(n)) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if elapsed := time.Since(start); elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
