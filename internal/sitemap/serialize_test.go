package sitemap_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

func buildSample(t *testing.T) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder("example.com", time.Unix(1700000000, 0))

	var homeFeats [feature.Dim]float32
	homeFeats[feature.PageType] = float32(feature.Home)
	home := b.AddNode("https://example.com/", sitemap.NodeRecord{
		PageType:   feature.Home,
		Confidence: 240,
		Freshness:  255,
		Flags:      feature.Rendered,
		Depth:      0,
	}, homeFeats)

	var productFeats [feature.Dim]float32
	productFeats[feature.Price] = 19.99
	product := b.AddNode("https://example.com/p/1", sitemap.NodeRecord{
		PageType:   feature.ProductDetail,
		Confidence: 200,
		Freshness:  200,
		Flags:      feature.Rendered | feature.HasPrice,
		Depth:      1,
	}, productFeats)

	b.AddEdge(home, sitemap.EdgeRecord{TargetNode: uint32(product), EdgeType: feature.Navigation, Weight: 1})
	b.AddAction(product, sitemap.ActionRecord{
		OpCode:     feature.OpCode{Category: feature.OpcodeCart, Action: 1},
		TargetNode: feature.TargetStaysOnPage,
		CostHint:   10,
		Risk:       feature.RiskCautious,
	})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	m := buildSample(t)
	data := m.Serialize()

	got, err := sitemap.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got.Header.Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", got.Header.Domain)
	}
	if got.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", got.NodeCount())
	}
	if len(got.OutEdges(0)) != 1 {
		t.Fatalf("OutEdges(0) len = %d, want 1", len(got.OutEdges(0)))
	}
	if got.OutEdges(0)[0].TargetNode != 1 {
		t.Errorf("edge target = %d, want 1", got.OutEdges(0)[0].TargetNode)
	}
	if len(got.OutActions(1)) != 1 {
		t.Fatalf("OutActions(1) len = %d, want 1", len(got.OutActions(1)))
	}
	if got.Nodes[1].PageType != feature.ProductDetail {
		t.Errorf("node 1 page type = %v, want ProductDetail", got.Nodes[1].PageType)
	}
	if got.URLs[0] != "https://example.com/" {
		t.Errorf("url 0 = %q", got.URLs[0])
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	m := buildSample(t)
	data := m.Serialize()
	corrupt := append([]byte(nil), data...)
	corrupt[0] ^= 0xFF

	_, err := sitemap.Deserialize(corrupt)
	if err == nil {
		t.Fatal("expected error for corrupted magic, got nil")
	}
}

func TestDeserializeRejectsTamperedBody(t *testing.T) {
	m := buildSample(t)
	data := m.Serialize()
	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-40] ^= 0xFF

	_, err := sitemap.Deserialize(corrupt)
	if err != sitemap.ErrChecksumMismatch {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
}

func TestDeserializeRejectsTruncated(t *testing.T) {
	m := buildSample(t)
	data := m.Serialize()

	_, err := sitemap.Deserialize(data[:10])
	if err == nil {
		t.Fatal("expected error for truncated data, got nil")
	}
}

func TestBuilderComputesDegreesAndNorm(t *testing.T) {
	m := buildSample(t)
	if m.Nodes[0].OutboundCount != 1 {
		t.Errorf("home outbound = %d, want 1", m.Nodes[0].OutboundCount)
	}
	if m.Nodes[1].InboundCount != 1 {
		t.Errorf("product inbound = %d, want 1", m.Nodes[1].InboundCount)
	}
	if m.Nodes[1].FeatureNorm == 0 {
		t.Error("product feature norm should be nonzero (Price dim is set)")
	}
}
