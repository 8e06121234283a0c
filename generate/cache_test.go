package generate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestCache(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer c.Close()

	if _, found, err := c.Get("missing"); err != nil || found {
		t.Fatalf("Get(missing) = %v, %v", found, err)
	}
	if err := c.Put("k", []byte(`[1]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put("k", []byte(`[2]`)); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}
	body, found, err := c.Get("k")
	if err != nil || !found || string(body) != `[2]` {
		t.Errorf("Get(k) = %q, %v, %v", body, found, err)
	}
	if n, err := c.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v", n, err)
	}
}

func TestKey(t *testing.T) {
	a := Key("http://a", Request{Text: "x"})
	if a != Key("http://a", Request{Text: "x"}) {
		t.Error("Key must be stable")
	}
	for _, other := range []string{
		Key("http://b", Request{Text: "x"}),
		Key("http://a", Request{Text: "y"}),
		Key("http://a", Request{Text: "x", Title: "t"}),
	} {
		if other == a {
			t.Error("Different requests must have different keys")
		}
	}
}

func TestGenerateUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"type":"content","content":["para"]}]`))
	}))
	defer srv.Close()

	cache, err := OpenCache(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	c := NewClient(Options{Endpoint: srv.URL, Cache: cache}, zaptest.NewLogger(t))
	req := Request{Text: "same text"}

	first, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("service called %d times, want 1", hits.Load())
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v, want false, true", first.Cached, second.Cached)
	}
	if len(second.Records) != 1 || second.Records[0].Content[0] != "para" {
		t.Errorf("cached records = %+v", second.Records)
	}

	if _, err := c.Generate(context.Background(), Request{Text: "other text"}); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("service called %d times, want 2", hits.Load())
	}
}

func TestGenerateDoesNotCacheFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	cache, err := OpenCache(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	c := NewClient(Options{Endpoint: srv.URL, Cache: cache}, zaptest.NewLogger(t))
	if _, err := c.Generate(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("Expected error")
	}
	if n, _ := cache.Len(); n != 0 {
		t.Errorf("cache has %d entries after failure", n)
	}
}
