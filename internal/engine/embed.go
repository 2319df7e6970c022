package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// ErrEmbeddingNotConfigured is returned when EMBED_API_BASE is empty.
var ErrEmbeddingNotConfigured = errors.New("embedding endpoint not configured")

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding of text from an OpenAI-compatible /embeddings
// endpoint. Results are cached by model+text in the tiered cache so repeated
// questions do not hit the provider.
func Embed(ctx context.Context, text string) ([]float32, error) {
	if cfg.EmbedAPIBase == "" {
		return nil, ErrEmbeddingNotConfigured
	}
	key := CacheKey("embed", cfg.EmbedModel, text)
	if data, ok := CacheGet(ctx, key); ok {
		if vec := DecodeVector(data); len(vec) > 0 {
			return vec, nil
		}
	}

	metrics.EmbedCalls.Add(1)
	vec, err := requestEmbedding(ctx, text)
	if err != nil {
		metrics.EmbedErrors.Add(1)
		return nil, err
	}
	CacheSet(ctx, key, EncodeVector(vec))
	return vec, nil
}

func requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: cfg.EmbedModel, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal: %w", err)
	}
	endpoint := strings.TrimRight(cfg.EmbedAPIBase, "/") + "/embeddings"

	resp, err := RetryHTTP(ctx, EmbedRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if cfg.EmbedAPIKey != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.EmbedAPIKey)
		}
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed: status %d: %s", resp.StatusCode, TruncateRunes(string(snippet), 200, "..."))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: decode: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, fmt.Errorf("embed: %s", out.Error.Message)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("embed: empty embedding in response")
	}
	return out.Data[0].Embedding, nil
}

// NewEmbedLimiter builds the token bucket that throttles per-node embedding
// during ingestion. rps <= 0 disables throttling.
func NewEmbedLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// EncodeVector packs a float32 slice as little-endian bytes for BLOB storage.
func EncodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector. Trailing bytes that do not
// form a whole float32 are ignored.
func DecodeVector(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
