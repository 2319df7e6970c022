package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("embed", "text-embedding-3-small", "golang context")
		k2 := CacheKey("embed", "text-embedding-3-small", "golang context")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("embed", "golang")
		k2 := CacheKey("embed", "python")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if !strings.HasPrefix(k, "kb:") {
			t.Errorf("expected kb: prefix, got %q", k)
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheSet(ctx, key, []byte("hello"))

	got, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestCacheSetIgnoresEmpty(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)
	ctx := context.Background()
	key := CacheKey("test", "empty")

	CacheSet(ctx, key, nil)
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("empty payload should not be cached")
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache("", time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := CacheKey("evict", fmt.Sprintf("item-%d", i))
		CacheSet(ctx, key, []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	kbCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	_, misses := CacheStats()
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheSet(ctx, key, []byte("x"))
	CacheGet(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestCloseCache(t *testing.T) {
	InitCache("", time.Minute, 100, time.Millisecond)
	first := kbCache

	InitCache("", time.Minute, 100, time.Millisecond)
	select {
	case <-first.done:
	default:
		t.Fatal("re-initializing should stop the previous cleanup loop")
	}

	second := kbCache
	CloseCache()
	if kbCache != nil {
		t.Error("cache still set after CloseCache")
	}
	select {
	case <-second.done:
	default:
		t.Fatal("CloseCache should stop the cleanup loop")
	}
	if _, ok := CacheGet(context.Background(), CacheKey("closed")); ok {
		t.Error("closed cache should miss")
	}
	CloseCache()
}
