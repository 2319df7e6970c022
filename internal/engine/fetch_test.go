package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<html><head><title>Acme Engineering</title><script>var x=1;</script></head>
<body><nav>Home | Careers</nav>
<main><h1>How we hire</h1><p>Our interview loop has <strong>four</strong> stages.</p></main>
<footer>© Acme</footer></body></html>`

func TestHTMLToMarkdown(t *testing.T) {
	title, md, err := HTMLToMarkdown(samplePage)
	if err != nil {
		t.Fatalf("HTMLToMarkdown: %v", err)
	}
	if title != "Acme Engineering" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(md, "How we hire") || !strings.Contains(md, "**four**") {
		t.Errorf("main content missing from markdown:\n%s", md)
	}
	for _, junk := range []string{"var x", "Home | Careers", "© Acme"} {
		if strings.Contains(md, junk) {
			t.Errorf("page chrome %q leaked into markdown:\n%s", junk, md)
		}
	}
}

func TestFetchPage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	Init(Config{FetchTimeout: 30 * time.Second, MaxContentChars: 20})
	page, err := FetchPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected one retry, got %d hits", hits.Load())
	}
	if !page.Truncated {
		t.Error("expected truncation at MaxContentChars")
	}
	if page.Title != "Acme Engineering" {
		t.Errorf("title = %q", page.Title)
	}
}

func TestFetchPageNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	Init(Config{})
	if _, err := FetchPage(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	if hits.Load() != 1 {
		t.Errorf("404 must not be retried, got %d hits", hits.Load())
	}
}
