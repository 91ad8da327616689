package delta_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/delta"
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

func build(t *testing.T, price float32) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	feats[feature.Price] = price
	b.AddNode("https://example.com/p/1", sitemap.NodeRecord{PageType: feature.ProductDetail}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestNewInstanceIDUnique(t *testing.T) {
	a := delta.NewInstanceID()
	b := delta.NewInstanceID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty instance ids")
	}
	if a == b {
		t.Fatal("expected distinct instance ids across calls")
	}
}

func TestComputeDeltaDetectsFeatureChange(t *testing.T) {
	oldMap := build(t, 10.0)
	newMap := build(t, 12.5)

	d := delta.ComputeDelta(oldMap, newMap, "instance-1")
	if len(d.NodesModified) != 1 {
		t.Fatalf("NodesModified = %d, want 1", len(d.NodesModified))
	}
	mod := d.NodesModified[0]
	if mod.Index != 0 {
		t.Errorf("modified index = %d, want 0", mod.Index)
	}
	found := false
	for _, cv := range mod.Delta.ChangedDims {
		if cv.Dim == uint8(feature.Price) {
			found = true
			if cv.Value != 12.5 {
				t.Errorf("changed price = %v, want 12.5", cv.Value)
			}
		}
	}
	if !found {
		t.Error("expected Price dimension in changed_dims")
	}
}

func TestComputeDeltaDetectsAddedNode(t *testing.T) {
	oldMap := build(t, 10.0)

	b := sitemap.NewBuilder("example.com", time.Unix(1700000100, 0))
	var feats1 [feature.Dim]float32
	feats1[feature.Price] = 10.0
	b.AddNode("https://example.com/p/1", sitemap.NodeRecord{PageType: feature.ProductDetail}, feats1)
	var feats2 [feature.Dim]float32
	feats2[feature.Price] = 30.0
	b.AddNode("https://example.com/p/2", sitemap.NodeRecord{PageType: feature.ProductDetail}, feats2)
	newMap, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	d := delta.ComputeDelta(oldMap, newMap, "instance-1")
	if len(d.NodesAdded) != 1 {
		t.Fatalf("NodesAdded = %d, want 1", len(d.NodesAdded))
	}
	if d.NodesAdded[0].URL != "https://example.com/p/2" {
		t.Errorf("added url = %q", d.NodesAdded[0].URL)
	}
}

func TestApplyDeltaUpdatesFeatures(t *testing.T) {
	oldMap := build(t, 10.0)
	newMap := build(t, 15.0)
	d := delta.ComputeDelta(oldMap, newMap, "instance-1")
	d.Timestamp = time.Unix(1700000200, 0)

	delta.ApplyDelta(oldMap, d)
	if oldMap.Features[0][feature.Price] != 15.0 {
		t.Errorf("price after ApplyDelta = %v, want 15.0", oldMap.Features[0][feature.Price])
	}
	if oldMap.Header.MappedAt != 1700000200 {
		t.Errorf("MappedAt = %d, want 1700000200", oldMap.Header.MappedAt)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	oldMap := build(t, 10.0)
	newMap := build(t, 15.0)
	d := delta.ComputeDelta(oldMap, newMap, "instance-1")

	data, err := delta.Serialize(d)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := delta.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Domain != d.Domain {
		t.Errorf("domain = %q, want %q", got.Domain, d.Domain)
	}
	if len(got.NodesModified) != len(d.NodesModified) {
		t.Errorf("NodesModified len = %d, want %d", len(got.NodesModified), len(d.NodesModified))
	}
}

func TestStripPrivateDataZeroesSessionAndAuthNodes(t *testing.T) {
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))
	var openFeats [feature.Dim]float32
	openFeats[feature.SessionPageCount] = 5
	openFeats[feature.CookieConsentBlocking] = 1
	openFeats[feature.Price] = 9.99
	b.AddNode("https://example.com/", sitemap.NodeRecord{PageType: feature.Home}, openFeats)

	var authFeats [feature.Dim]float32
	authFeats[feature.Price] = 42
	authIdx := b.AddNode("https://example.com/account", sitemap.NodeRecord{
		PageType: feature.Account,
		Flags:    feature.AuthRequired,
	}, authFeats)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	delta.StripPrivateData(m)

	if m.Features[0][feature.SessionPageCount] != 0 {
		t.Error("session dim not stripped")
	}
	if m.Features[0][feature.CookieConsentBlocking] != 0 {
		t.Error("cookie consent dim not stripped")
	}
	if m.Features[0][feature.Price] != 9.99 {
		t.Error("non-sensitive dim should survive stripping")
	}
	for d := 0; d < feature.Dim; d++ {
		if m.Features[authIdx][d] != 0 {
			t.Fatalf("auth-required node row not fully zeroed at dim %d", d)
		}
	}
}
