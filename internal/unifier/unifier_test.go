package unifier_test

import (
	"testing"

	"github.com/webcortex/sitemap-engine/internal/compiler"
	"github.com/webcortex/sitemap-engine/internal/unifier"
)

func schemaFor(domain string, fieldNames ...string) compiler.CompiledSchema {
	var fields []compiler.ModelField
	for _, n := range fieldNames {
		fields = append(fields, compiler.ModelField{Name: n, Type: compiler.FieldType{Kind: compiler.TypeFloat}})
	}
	return compiler.CompiledSchema{
		Domain: domain,
		Models: []compiler.DataModel{
			{Name: "Product", SchemaOrgType: "Product", InstanceCount: 10, Fields: fields},
		},
	}
}

func TestUnifyCanonicalizesAliasesAndComputesCoverage(t *testing.T) {
	a := schemaFor("amazon.com", "cost", "rating")
	b := schemaFor("bestbuy.com", "price", "stars", "image")

	unified := unifier.Unify([]compiler.CompiledSchema{a, b})
	if len(unified.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(unified.Models))
	}
	m := unified.Models[0]
	if m.SchemaOrgType != "Product" {
		t.Fatalf("SchemaOrgType = %q, want Product", m.SchemaOrgType)
	}
	if m.TotalInstanceCount != 20 {
		t.Errorf("TotalInstanceCount = %d, want 20", m.TotalInstanceCount)
	}

	byName := make(map[string]unifier.UnifiedField)
	for _, f := range m.Fields {
		byName[f.Name] = f
	}
	price, ok := byName["price"]
	if !ok {
		t.Fatal("expected cost/price to canonicalize into a single 'price' field")
	}
	if price.Coverage != 1.0 {
		t.Errorf("price coverage = %v, want 1.0 (present in both domains)", price.Coverage)
	}

	rating, ok := byName["rating"]
	if !ok {
		t.Fatal("expected rating/stars to canonicalize into a single 'rating' field")
	}
	if rating.Coverage != 1.0 {
		t.Errorf("rating coverage = %v, want 1.0", rating.Coverage)
	}

	imageField, ok := byName["image_url"]
	if !ok {
		t.Fatal("expected image to canonicalize into image_url")
	}
	if len(imageField.PresentIn) != 1 || imageField.PresentIn[0] != "bestbuy.com" {
		t.Errorf("image_url PresentIn = %v, want [bestbuy.com]", imageField.PresentIn)
	}
}

func TestUnifySortsByTotalInstanceCountDescending(t *testing.T) {
	small := compiler.CompiledSchema{
		Domain: "tiny.com",
		Models: []compiler.DataModel{{Name: "Article", SchemaOrgType: "Article", InstanceCount: 2}},
	}
	large := compiler.CompiledSchema{
		Domain: "big.com",
		Models: []compiler.DataModel{{Name: "Product", SchemaOrgType: "Product", InstanceCount: 100}},
	}
	unified := unifier.Unify([]compiler.CompiledSchema{small, large})
	if len(unified.Models) != 2 {
		t.Fatalf("len(Models) = %d, want 2", len(unified.Models))
	}
	if unified.Models[0].SchemaOrgType != "Product" {
		t.Errorf("Models[0] = %q, want Product (higher instance count first)", unified.Models[0].SchemaOrgType)
	}
}

func TestUniversalPythonClientAggregatesDomains(t *testing.T) {
	schema := unifier.UnifiedSchema{}
	out := unifier.UniversalPythonClient(schema, []string{"bestbuy.com", "amazon.com"})
	if out == "" {
		t.Fatal("expected non-empty client source")
	}
	if !containsAll(out, "amazon.com", "bestbuy.com", "def search") {
		t.Errorf("expected generated client to reference both domains and a search function:\n%s", out)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	return len(sub) == 0 || (len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})())
}
