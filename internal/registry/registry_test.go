package registry_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/delta"
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/registry"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

func buildMap(t *testing.T, domain string, price float32) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder(domain, time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	feats[feature.Price] = price
	b.AddNode("https://"+domain+"/p/1", sitemap.NodeRecord{PageType: feature.ProductDetail}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestPushPullRoundTrip(t *testing.T) {
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m := buildMap(t, "example.com", 10.0)

	if err := r.Push("example.com", m, nil); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	got, _, ok, err := r.Pull("example.com")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !ok {
		t.Fatal("Pull returned ok=false for pushed domain")
	}
	if got.Header.Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", got.Header.Domain)
	}
	if got.Features[0][feature.Price] != 10.0 {
		t.Errorf("price = %v, want 10.0", got.Features[0][feature.Price])
	}
}

func TestPullUnknownDomain(t *testing.T) {
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, _, ok, err := r.Pull("nowhere.example")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if ok {
		t.Fatal("Pull returned ok=true for unknown domain")
	}
}

func TestListAndStats(t *testing.T) {
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := r.Push("a.example", buildMap(t, "a.example", 1), nil); err != nil {
		t.Fatalf("Push a failed: %v", err)
	}
	if err := r.Push("b.example", buildMap(t, "b.example", 2), nil); err != nil {
		t.Fatalf("Push b failed: %v", err)
	}

	entries := r.List()
	if len(entries) != 2 {
		t.Fatalf("List len = %d, want 2", len(entries))
	}
	if entries[0].Domain != "a.example" || entries[1].Domain != "b.example" {
		t.Errorf("List not sorted by domain: %+v", entries)
	}

	stats := r.Stats()
	if stats.DomainCount != 2 {
		t.Errorf("DomainCount = %d, want 2", stats.DomainCount)
	}
	if stats.TotalSnapshotBytes <= 0 {
		t.Error("expected positive TotalSnapshotBytes")
	}
	if s := stats.String(); s == "" {
		t.Error("expected non-empty Stats.String()")
	}
}

func TestPushWithDeltaAndPullSince(t *testing.T) {
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	oldMap := buildMap(t, "example.com", 10.0)
	if err := r.Push("example.com", oldMap, nil); err != nil {
		t.Fatalf("initial push failed: %v", err)
	}

	newMap := buildMap(t, "example.com", 20.0)
	d := delta.ComputeDelta(oldMap, newMap, "instance-1")
	d.Timestamp = time.Unix(1700000500, 0)
	if err := r.Push("example.com", newMap, &d); err != nil {
		t.Fatalf("push with delta failed: %v", err)
	}

	deltas, ok, err := r.PullSince("example.com", time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("PullSince failed: %v", err)
	}
	if !ok {
		t.Fatal("PullSince returned ok=false")
	}
	if len(deltas) != 1 {
		t.Fatalf("deltas len = %d, want 1", len(deltas))
	}
	if deltas[0].InstanceID != "instance-1" {
		t.Errorf("InstanceID = %q, want instance-1", deltas[0].InstanceID)
	}

	after, ok, err := r.PullSince("example.com", time.Unix(1700000500, 0))
	if err != nil {
		t.Fatalf("PullSince (after) failed: %v", err)
	}
	if !ok {
		t.Fatal("PullSince (after) returned ok=false")
	}
	if len(after) != 0 {
		t.Errorf("expected no deltas strictly after the last push, got %d", len(after))
	}
}

func TestGCTrimsOldDeltas(t *testing.T) {
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	base := buildMap(t, "example.com", 1.0)
	if err := r.Push("example.com", base, nil); err != nil {
		t.Fatalf("initial push failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		newMap := buildMap(t, "example.com", float32(i+2))
		d := delta.ComputeDelta(base, newMap, "instance-1")
		d.Timestamp = time.Unix(int64(1700000000+i*10), 0)
		if err := r.Push("example.com", newMap, &d); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
		base = newMap
	}

	removed, err := r.GC(2)
	if err != nil {
		t.Fatalf("GC failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("GC removed = %d, want 3", removed)
	}

	entries := r.List()
	if len(entries[0].Deltas) != 2 {
		t.Errorf("deltas remaining = %d, want 2", len(entries[0].Deltas))
	}
}

func TestOpenReloadsExistingIndex(t *testing.T) {
	dir := t.TempDir()
	r1, err := registry.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := r1.Push("example.com", buildMap(t, "example.com", 5.0), nil); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	r2, err := registry.Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	_, _, ok, err := r2.Pull("example.com")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !ok {
		t.Fatal("reloaded registry lost its pushed domain")
	}
}
