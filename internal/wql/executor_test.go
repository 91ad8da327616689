package wql_test

import (
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
	"github.com/webcortex/sitemap-engine/internal/wql"
)

func buildProducts(t *testing.T, domain string, n int, basePrice, step, baseRating, ratingStep float32) *sitemap.SiteMap {
	t.Helper()
	b := sitemap.NewBuilder(domain, time.Unix(1700000000, 0))
	for i := 0; i < n; i++ {
		var feats [feature.Dim]float32
		feats[feature.Price] = basePrice + step*float32(i)
		feats[feature.Rating] = baseRating + ratingStep*float32(i)
		url := domain + "/p/" + string(rune('a'+i))
		b.AddNode("https://"+url, sitemap.NodeRecord{PageType: feature.ProductDetail, Confidence: 255}, feats)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func runQuery(t *testing.T, src string, domains map[string]*sitemap.SiteMap) []wql.Row {
	t.Helper()
	q, err := wql.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	plan := wql.PlanQuery(q, nil)
	rows, err := wql.Execute(plan, wql.ExecConfig{DomainMaps: domains, Now: time.Unix(1700010000, 0)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return rows
}

func TestExecutePriceFilterReturnsExactRows(t *testing.T) {
	m := buildProducts(t, "shop.example.com", 10, 50, 20, 4, 0.1)
	rows := runQuery(t, "SELECT * FROM Product WHERE price < 100 LIMIT 20", map[string]*sitemap.SiteMap{
		"shop.example.com": m,
	})
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	for _, r := range rows {
		p := r.Fields["price"].Num
		if p >= 100 {
			t.Errorf("row price = %v, want < 100", p)
		}
	}
}

func TestExecuteAcrossTwoDomainsOrderedAscendingUnderLimit(t *testing.T) {
	amazon := buildProducts(t, "amazon.com", 15, 30, 25, 3.0, 0.1)
	bestbuy := buildProducts(t, "bestbuy.com", 10, 100, 50, 3.5, 0.15)

	rows := runQuery(t,
		"SELECT * FROM Product ACROSS amazon.com, bestbuy.com WHERE price < 300 ORDER BY price ASC LIMIT 10",
		map[string]*sitemap.SiteMap{"amazon.com": amazon, "bestbuy.com": bestbuy},
	)

	if len(rows) > 10 {
		t.Fatalf("len(rows) = %d, want <= 10", len(rows))
	}
	seenAmazon, seenBestbuy := false, false
	var last float64 = -1
	for _, r := range rows {
		p := r.Fields["price"].Num
		if p >= 300 {
			t.Errorf("row price = %v, want < 300", p)
		}
		if p < last {
			t.Errorf("rows not ascending: %v then %v", last, p)
		}
		last = p
		switch r.Domain {
		case "amazon.com":
			seenAmazon = true
		case "bestbuy.com":
			seenBestbuy = true
		}
	}
	if !seenAmazon || !seenBestbuy {
		t.Errorf("expected rows sourced from both domains, amazon=%v bestbuy=%v", seenAmazon, seenBestbuy)
	}
}

func TestExecuteProjectRetainsOnlySelectedFields(t *testing.T) {
	m := buildProducts(t, "shop.example.com", 2, 50, 10, 4, 0)
	rows := runQuery(t, "SELECT price FROM Product", map[string]*sitemap.SiteMap{"shop.example.com": m})
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if _, ok := r.Fields["price"]; !ok {
			t.Error("expected price field to survive projection")
		}
		if _, ok := r.Fields["rating"]; ok {
			t.Error("expected rating field to be projected away")
		}
	}
}

func TestExecuteUnknownModelErrors(t *testing.T) {
	m := buildProducts(t, "shop.example.com", 1, 50, 0, 4, 0)
	q, err := wql.Parse("SELECT * FROM NotAModel")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	plan := wql.PlanQuery(q, nil)
	_, err = wql.Execute(plan, wql.ExecConfig{DomainMaps: map[string]*sitemap.SiteMap{"shop.example.com": m}})
	if err == nil {
		t.Fatal("expected an error for an unknown model")
	}
}
