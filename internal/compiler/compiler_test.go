package compiler_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/compiler"
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

func buildProductSite(t *testing.T, n int) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder("shop.example.com", time.Unix(1700000000, 0))
	for i := 0; i < n; i++ {
		var feats [feature.Dim]float32
		feats[feature.Price] = float32(50 + 20*i)
		feats[feature.Rating] = 0.8
		b.AddNode(
			productURL(i),
			sitemap.NodeRecord{PageType: feature.ProductDetail, Confidence: 255},
			feats,
		)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func productURL(i int) string {
	return "https://shop.example.com/p/" + string(rune('a'+i))
}

func TestCompileGroupsProductsAndDiscoversFields(t *testing.T) {
	m := buildProductSite(t, 3)
	schema := compiler.Compile(m, nil)

	model := schema.ModelByName("Product")
	if model == nil {
		t.Fatalf("expected a Product model, got models: %+v", schema.Models)
	}
	if model.InstanceCount != 3 {
		t.Errorf("InstanceCount = %d, want 3", model.InstanceCount)
	}

	var priceField *compiler.ModelField
	for i := range model.Fields {
		if model.Fields[i].Name == "price" {
			priceField = &model.Fields[i]
		}
	}
	if priceField == nil {
		t.Fatal("expected a price field to be discovered")
	}
	if priceField.Nullable {
		t.Error("price is present on every instance, should not be nullable")
	}
}

func TestCompileDropsLowConfidenceAndBelowMinInstances(t *testing.T) {
	b := sitemap.NewBuilder("shop.example.com", time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	feats[feature.Price] = 42
	// Single low-confidence product: below minGroupConfidence and not a
	// singleton type, so it must not surface as a model at all.
	b.AddNode("https://shop.example.com/p/1", sitemap.NodeRecord{PageType: feature.ProductDetail, Confidence: 50}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	schema := compiler.Compile(m, nil)
	if schema.ModelByName("Product") != nil {
		t.Error("expected no Product model from a single low-confidence node")
	}
}

func TestCompileSingletonTypeSurvivesWithOneInstance(t *testing.T) {
	b := sitemap.NewBuilder("shop.example.com", time.Unix(1700000000, 0))
	var feats [feature.Dim]float32
	b.AddNode("https://shop.example.com/cart", sitemap.NodeRecord{PageType: feature.Cart, Confidence: 255}, feats)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	schema := compiler.Compile(m, nil)
	if schema.ModelByName("Cart") == nil {
		t.Error("expected the singleton Cart model to survive with one instance")
	}
}

func TestPageTypeForModelRoundTripsSchemaOrgType(t *testing.T) {
	pt, ok := compiler.PageTypeForModel("Product")
	if !ok || pt != feature.ProductDetail {
		t.Errorf("PageTypeForModel(Product) = (%v, %v), want (ProductDetail, true)", pt, ok)
	}
	if _, ok := compiler.PageTypeForModel("NotARealType"); ok {
		t.Error("expected ok=false for an unknown model name")
	}
}
