// Package research builds company dossiers from web search and caches them
// in the knowledge store.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
	"github.com/anatolykoptev/go_kb/internal/toolutil"
)

const (
	defaultMaxFetch       = 3
	defaultRefreshTimeout = 2 * time.Minute
	sourcesContentLimit   = 1500
	sourcesTextLimit      = 12000
	resultsPerDomain      = 2
	minKeepResults        = 3
	searchLanguage        = "all"
)

// SearchFunc runs one web search. engine.SearchSearXNG satisfies it.
type SearchFunc func(ctx context.Context, query, language, timeRange string) ([]engine.SearxngResult, error)

// Researcher serves dossiers from the store, researching missing companies
// synchronously and refreshing stale ones in the background.
type Researcher struct {
	store    knowledge.Store
	generate knowledge.GenerateFunc
	search   SearchFunc
	fallback SearchFunc
	fetch    toolutil.FetchFunc

	ttlHours       int
	maxFetch       int
	minScore       float64
	refreshTimeout time.Duration

	inflight sync.Map // normalized company → struct{}
	bg       sync.WaitGroup
}

var _ knowledge.CompanyResearcher = (*Researcher)(nil)

// Option configures a Researcher.
type Option func(*Researcher)

// WithSearch replaces the SearXNG search call.
func WithSearch(fn SearchFunc) Option { return func(r *Researcher) { r.search = fn } }

// WithFallbackSearch sets a search used when the primary one fails or
// returns nothing for a query.
func WithFallbackSearch(fn SearchFunc) Option { return func(r *Researcher) { r.fallback = fn } }

// WithFetch replaces the page fetcher.
func WithFetch(fn toolutil.FetchFunc) Option { return func(r *Researcher) { r.fetch = fn } }

// WithTTL sets the TTL written on new dossiers.
func WithTTL(hours int) Option { return func(r *Researcher) { r.ttlHours = hours } }

// WithMaxFetch caps how many result pages are fetched per research run.
func WithMaxFetch(n int) Option { return func(r *Researcher) { r.maxFetch = n } }

// WithMinScore drops search results scoring below score, keeping at least
// three. Zero disables the filter.
func WithMinScore(score float64) Option { return func(r *Researcher) { r.minScore = score } }

// New creates a Researcher over store using generate for synthesis.
func New(store knowledge.Store, generate knowledge.GenerateFunc, opts ...Option) *Researcher {
	r := &Researcher{
		store:          store,
		generate:       generate,
		search:         engine.SearchSearXNG,
		fetch:          engine.FetchPage,
		ttlHours:       knowledge.DefaultDossierTTLHours,
		maxFetch:       defaultMaxFetch,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Dossier returns the dossier for company. A stale cached copy is returned
// immediately while a single background refresh runs.
func (r *Researcher) Dossier(ctx context.Context, company string) (*knowledge.Dossier, error) {
	name := engine.NormalizeCompany(company)
	if name == "" {
		return nil, fmt.Errorf("%w: empty company name", knowledge.ErrResearchFailed)
	}
	engine.IncrResearch()

	d, err := r.store.GetDossier(ctx, name)
	switch {
	case err == nil && !d.Stale:
		engine.IncrDossierCacheHit()
		return d, nil
	case err == nil:
		engine.IncrDossierStaleHit()
		r.refreshAsync(ctx, name)
		return d, nil
	case !errors.Is(err, knowledge.ErrNotFound):
		slog.Warn("dossier lookup failed, researching", slog.String("company", name), slog.Any("error", err))
	}

	return r.Refresh(ctx, name)
}

// Refresh researches company now and persists the result.
func (r *Researcher) Refresh(ctx context.Context, company string) (*knowledge.Dossier, error) {
	name := engine.NormalizeCompany(company)
	d, err := r.research(ctx, name)
	if err != nil {
		engine.IncrResearchFailure()
		return nil, fmt.Errorf("%w: %s: %v", knowledge.ErrResearchFailed, name, err)
	}
	if err := r.store.SaveDossier(ctx, d); err != nil {
		// The dossier is still usable for this query.
		slog.Warn("dossier save failed", slog.String("company", name), slog.Any("error", err))
	}
	return d, nil
}

// Wait blocks until background refreshes finish.
func (r *Researcher) Wait() { r.bg.Wait() }

func (r *Researcher) refreshAsync(ctx context.Context, name string) {
	if _, busy := r.inflight.LoadOrStore(name, struct{}{}); busy {
		return
	}
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()
		defer r.inflight.Delete(name)

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refreshTimeout)
		defer cancel()
		if _, err := r.Refresh(bgCtx, name); err != nil {
			slog.Warn("background dossier refresh failed", slog.String("company", name), slog.Any("error", err))
			return
		}
		slog.Debug("dossier refreshed", slog.String("company", name))
	}()
}

// research runs the search → fetch → synthesize pipeline for one company.
func (r *Researcher) research(ctx context.Context, name string) (*knowledge.Dossier, error) {
	if r.generate == nil {
		return nil, knowledge.ErrGenerationFailed
	}

	results := r.gather(ctx, companyQueries(name))
	if len(results) == 0 {
		return nil, errors.New("no search results")
	}
	if r.minScore > 0 {
		results = engine.FilterByScore(results, r.minScore, minKeepResults)
	}
	results = engine.DedupByDomain(results, resultsPerDomain)

	contents := toolutil.FetchURLsParallel(ctx, results, nil, r.maxFetch, r.fetch)
	sources := engine.TruncateRunes(engine.BuildSourcesText(results, contents, sourcesContentLimit), sourcesTextLimit, "")

	raw, err := r.generate(ctx, fmt.Sprintf(dossierPrompt, name, sources))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	var d knowledge.Dossier
	if err := json.Unmarshal([]byte(engine.StripFences(raw)), &d); err != nil {
		return nil, fmt.Errorf("parse dossier: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
	}

	d.CompanyName = name
	d.LastChecked = time.Now().UTC()
	d.TTLHours = r.ttlHours
	d.Stale = false
	d.SourceTrace = sourceTrace(results)
	return &d, nil
}

// gather runs queries concurrently, caching each result set.
func (r *Researcher) gather(ctx context.Context, queries []string) []engine.SearxngResult {
	type searchRes struct {
		results []engine.SearxngResult
		err     error
	}
	ch := make(chan searchRes, len(queries))
	for _, q := range queries {
		go func(query string) {
			key := engine.CacheKey("searxng", query)
			if cached, ok := toolutil.CacheLoadJSON[[]engine.SearxngResult](ctx, key); ok {
				ch <- searchRes{results: cached}
				return
			}
			res, err := r.searchOne(ctx, query)
			if err == nil && len(res) > 0 {
				toolutil.CacheStoreJSON(ctx, key, res)
			}
			ch <- searchRes{res, err}
		}(q)
	}

	var all []engine.SearxngResult
	seen := make(map[string]bool)
	for range queries {
		res := <-ch
		if res.err != nil {
			slog.Debug("research search failed", slog.Any("error", res.err))
			continue
		}
		for _, hit := range res.results {
			if hit.URL == "" || seen[hit.URL] {
				continue
			}
			seen[hit.URL] = true
			all = append(all, hit)
		}
	}
	return all
}

func (r *Researcher) searchOne(ctx context.Context, query string) ([]engine.SearxngResult, error) {
	res, err := r.search(ctx, query, searchLanguage, "")
	if (err == nil && len(res) > 0) || r.fallback == nil {
		return res, err
	}
	if err != nil {
		slog.Debug("primary search failed, trying fallback", slog.String("query", query), slog.Any("error", err))
	}
	fb, fbErr := r.fallback(ctx, query, searchLanguage, "")
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return fb, nil
}

func companyQueries(name string) []string {
	return []string{
		fmt.Sprintf("%s company overview engineering culture hiring", name),
		fmt.Sprintf("%s interview process questions site:glassdoor.com OR site:teamblind.com OR site:reddit.com", name),
		fmt.Sprintf("%s software engineer salary site:levels.fyi OR site:glassdoor.com", name),
	}
}

func sourceTrace(results []engine.SearxngResult) []string {
	trace := make([]string, 0, len(results))
	for _, r := range results {
		trace = append(trace, r.URL)
	}
	return trace
}

// Summary renders d as a short multi-line text for CLI and tool output.
func Summary(d *knowledge.Dossier) string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (checked %s", d.CompanyName, d.LastChecked.UTC().Format("2006-01-02"))
	if d.Stale {
		sb.WriteString(", stale")
	}
	sb.WriteString(")\n")
	if d.HiringStrategy != "" {
		fmt.Fprintf(&sb, "Hiring: %s\n", d.HiringStrategy)
	}
	if len(d.InterviewFocus) > 0 {
		fmt.Fprintf(&sb, "Interview focus: %s\n", strings.Join(d.InterviewFocus, "; "))
	}
	for _, s := range d.SalaryEstimates {
		fmt.Fprintf(&sb, "Salary %s: %d-%d %s (%s)\n", s.Title, s.Min, s.Max, s.Currency, s.Confidence)
	}
	if len(d.SourceTrace) > 0 {
		fmt.Fprintf(&sb, "Sources: %d\n", len(d.SourceTrace))
	}
	return strings.TrimRight(sb.String(), "\n")
}
