package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestEncodeDecodeVector(t *testing.T) {
	v := []float32{0.25, -1.5, 3.0}
	data := EncodeVector(v)
	require.Len(t, data, 12)
	assert.Equal(t, v, DecodeVector(data))

	assert.Nil(t, EncodeVector(nil))
	assert.Nil(t, DecodeVector([]byte{1, 2}))
}

func TestEmbedUsesEndpointAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embed", req.Model)
		assert.Equal(t, "distributed systems", req.Input)

		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	Init(Config{EmbedAPIBase: srv.URL + "/v1", EmbedAPIKey: "secret", EmbedModel: "test-embed"})
	InitCache("", time.Minute, 100, time.Minute)

	ctx := context.Background()
	vec, err := Embed(ctx, "distributed systems")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	vec, err = Embed(ctx, "distributed systems")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
}

func TestEmbedErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		Init(Config{})
		_, err := Embed(context.Background(), "x")
		assert.True(t, errors.Is(err, ErrEmbeddingNotConfigured))
	})

	t.Run("provider error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[],"error":{"message":"model not found"}}`))
		}))
		defer srv.Close()
		Init(Config{EmbedAPIBase: srv.URL, EmbedModel: "missing"})
		InitCache("", time.Minute, 100, time.Minute)

		_, err := Embed(context.Background(), "y")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()
		Init(Config{EmbedAPIBase: srv.URL, EmbedModel: "m"})
		InitCache("", time.Minute, 100, time.Minute)

		_, err := Embed(context.Background(), "z")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})
}

func TestNewEmbedLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewEmbedLimiter(0, 0).Limit())

	l := NewEmbedLimiter(2, 0)
	assert.Equal(t, rate.Limit(2), l.Limit())
	assert.Equal(t, 1, l.Burst())
}
