package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/cache"
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

func buildMap(t *testing.T, domain string) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder(domain, time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	b.AddNode("https://"+domain+"/", sitemap.NodeRecord{PageType: feature.Home}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	m := buildMap(t, "test.com")
	path, err := c.CacheMap("test.com", m)
	if err != nil {
		t.Fatalf("CacheMap failed: %v", err)
	}
	if path == "" {
		t.Fatal("expected non-empty path")
	}

	got, ok, err := c.LoadMap("test.com")
	if err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got.Nodes) != len(m.Nodes) {
		t.Errorf("Nodes len = %d, want %d", len(got.Nodes), len(m.Nodes))
	}
}

func TestCacheInvalidation(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Put("test.com", []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := c.Get("test.com"); !ok {
		t.Fatal("expected hit before invalidation")
	}

	c.Invalidate("test.com")
	if _, ok := c.Get("test.com"); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestCacheExpiry(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: 0})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Put("test.com", []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := c.Get("test.com"); ok {
		t.Fatal("expected immediate expiry with zero TTL")
	}
}

func TestLRUEviction(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: time.Hour, Capacity: 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, d := range []string{"a.com", "b.com", "c.com"} {
		if _, err := c.Put(d, []byte("data-"+d)); err != nil {
			t.Fatalf("Put %s failed: %v", d, err)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}

	c.Get("b.com")
	c.Get("c.com")

	if _, err := c.Put("d.com", []byte("data-d")); err != nil {
		t.Fatalf("Put d failed: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len after eviction = %d, want 3", c.Len())
	}
	if _, ok := c.Get("a.com"); ok {
		t.Error("expected a.com to be evicted as LRU")
	}
	if _, ok := c.Get("d.com"); !ok {
		t.Error("expected d.com to be present")
	}
}

func TestCleanupExpired(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Put("a.com", []byte("data-a")); err != nil {
		t.Fatalf("Put a failed: %v", err)
	}

	stale, err := cache.New(cache.Config{Dir: c.Dir(), DefaultTTL: 0})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	stale.CleanupExpired()
	if stale.Len() != 0 {
		t.Errorf("Len after cleanup = %d, want 0", stale.Len())
	}
}

func TestFillManyOnlyFillsMissingDomains(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir(), DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.CacheMap("cached.com", buildMap(t, "cached.com")); err != nil {
		t.Fatalf("CacheMap failed: %v", err)
	}

	var filledDomains []string
	results := c.FillMany(context.Background(), []string{"cached.com", "fresh.com"}, 2,
		func(ctx context.Context, domain string) (*sitemap.SiteMap, error) {
			filledDomains = append(filledDomains, domain)
			return buildMap(t, domain), nil
		})

	if len(results) != 1 || results[0].Domain != "fresh.com" {
		t.Fatalf("results = %+v, want a single fresh.com entry", results)
	}
	if len(filledDomains) != 1 || filledDomains[0] != "fresh.com" {
		t.Errorf("filled domains = %v, want [fresh.com]", filledDomains)
	}
	if _, ok := c.Get("fresh.com"); !ok {
		t.Error("expected fresh.com to be cached after FillMany")
	}
}
