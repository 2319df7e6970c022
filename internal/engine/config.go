package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from the CLI wiring.
type Config struct {
	DataDir     string
	DatabaseURL string // non-empty selects the Postgres store
	RedisURL    string

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMClient          *llm.Client

	EmbedAPIBase string
	EmbedAPIKey  string
	EmbedModel   string
	EmbedRPS     float64
	EmbedBurst   int

	SearxngURL      string
	MaxFetchURLs    int
	MinSourceScore  float64
	MaxContentChars int
	FetchTimeout    time.Duration

	ScoringConfig   string
	DossierTTLHours int

	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = 6000
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	cfg = c
}
