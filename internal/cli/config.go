package cli

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".go_kb"
	}
	return filepath.Join(home, ".go_kb")
}

// loadConfig reads the engine configuration from the environment.
func loadConfig() engine.Config {
	dataDir := env.Str("KB_DATA_DIR", defaultDataDir())
	c := engine.Config{
		DataDir:              dataDir,
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		RedisURL:             env.Str("REDIS_URL", ""),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		EmbedAPIBase:         env.Str("EMBED_API_BASE", ""),
		EmbedAPIKey:          env.Str("EMBED_API_KEY", ""),
		EmbedModel:           env.Str("EMBED_MODEL", "text-embedding-3-small"),
		EmbedRPS:             env.Float("EMBED_RPS", 5),
		EmbedBurst:           env.Int("EMBED_BURST", 5),
		SearxngURL:           env.Str("SEARXNG_URL", "http://127.0.0.1:8888"),
		MaxFetchURLs:         env.Int("MAX_FETCH_URLS", 3),
		MinSourceScore:       env.Float("RESEARCH_MIN_SCORE", 0.5),
		MaxContentChars:      env.Int("MAX_CONTENT_CHARS", 6000),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 10*time.Second),
		ScoringConfig:        env.Str("SCORING_CONFIG", filepath.Join(dataDir, "scoring.yaml")),
		DossierTTLHours:      env.Int("DOSSIER_TTL_HOURS", 24),
		CacheTTL:             env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 90 * time.Second}),
		)
	}
	return c
}

// scoringFromEnv applies SEARCH_THRESHOLD and SEARCH_MAX_NODES over s.
func scoringFromEnv(s knowledge.Scoring) knowledge.Scoring {
	s.Threshold = env.Float("SEARCH_THRESHOLD", s.Threshold)
	if n := env.Int("SEARCH_MAX_NODES", s.MaxNodes); n > 0 {
		s.MaxNodes = n
	}
	return s
}
