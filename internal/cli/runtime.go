package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
	"github.com/anatolykoptev/go_kb/internal/engine/research"
	"github.com/anatolykoptev/go_kb/internal/engine/store/postgres"
	"github.com/anatolykoptev/go_kb/internal/engine/store/sqlite"
)

// runtime is everything a command needs, opened once per invocation.
type runtime struct {
	store      knowledge.Store
	kb         *knowledge.Orchestrator
	researcher *research.Researcher
}

// Close waits for background dossier refreshes, then closes the cache and store.
func (r *runtime) Close() error {
	if r.researcher != nil {
		r.researcher.Wait()
	}
	engine.CloseCache()
	return r.store.Close()
}

// openRuntime is swapped in tests.
var openRuntime = newRuntime

func newRuntime(ctx context.Context) (*runtime, error) {
	c := loadConfig()
	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	store, err := openStore(ctx, c)
	if err != nil {
		engine.CloseCache()
		return nil, err
	}

	scoring, err := knowledge.LoadScoring(c.ScoringConfig)
	if err != nil {
		slog.Warn("scoring config invalid, using defaults",
			slog.String("path", c.ScoringConfig), slog.Any("error", err))
	}
	scoring = scoringFromEnv(scoring)

	researcher := research.New(store, engine.Generate,
		research.WithFallbackSearch(engine.SearchDDG),
		research.WithTTL(c.DossierTTLHours),
		research.WithMaxFetch(c.MaxFetchURLs),
		research.WithMinScore(c.MinSourceScore),
	)
	kb := knowledge.New(store, engine.Generate, engine.Embed,
		knowledge.WithResearcher(researcher),
		knowledge.WithLimiter(engine.NewEmbedLimiter(c.EmbedRPS, c.EmbedBurst)),
		knowledge.WithScoring(scoring),
		knowledge.WithIntroGenerate(engine.GenerateShort),
	)
	if err := kb.Load(ctx); err != nil {
		store.Close()
		engine.CloseCache()
		return nil, fmt.Errorf("load knowledge: %w", err)
	}
	if c.EmbedAPIBase == "" {
		slog.Info("EMBED_API_BASE not set, search is keyword-only")
	}
	return &runtime{store: store, kb: kb, researcher: researcher}, nil
}

// openStore picks Postgres when DATABASE_URL is set, else the local SQLite file.
func openStore(ctx context.Context, c engine.Config) (knowledge.Store, error) {
	if c.DatabaseURL != "" {
		s, err := postgres.Connect(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	}
	path := filepath.Join(c.DataDir, "knowledge.db")
	s, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", path, err)
	}
	slog.Debug("sqlite store opened", slog.String("path", path))
	return s, nil
}

// withRuntime opens the runtime, runs fn and closes it.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close())
	}()
	return fn(ctx, rt)
}
