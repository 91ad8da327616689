package wql_test

import (
	"testing"

	"github.com/webcortex/sitemap-engine/internal/wql"
)

func TestParseSimpleQuery(t *testing.T) {
	q, err := wql.Parse("SELECT * FROM Product WHERE price < 100 LIMIT 20")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !q.Star {
		t.Error("expected Star = true")
	}
	if q.From != "Product" {
		t.Errorf("From = %q, want Product", q.From)
	}
	if q.Where == nil || q.Where.Field != "price" || q.Where.Cmp != wql.OpLt {
		t.Fatalf("unexpected WHERE tree: %+v", q.Where)
	}
	if q.Where.Value.Num != 100 {
		t.Errorf("WHERE literal = %v, want 100", q.Where.Value.Num)
	}
	if !q.HasLimit || q.Limit != 20 {
		t.Errorf("Limit = (%v, %d), want (true, 20)", q.HasLimit, q.Limit)
	}
}

func TestParseFieldListWithAliasAndTemporalFunctions(t *testing.T) {
	q, err := wql.Parse("SELECT price AS current_price, price_7d_ago, price_trend, predicted_price_30d, best_historic_price FROM Product")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(q.Fields) != 5 {
		t.Fatalf("len(Fields) = %d, want 5", len(q.Fields))
	}
	if q.Fields[0].Alias != "current_price" || q.Fields[0].Temporal != wql.TemporalNone {
		t.Errorf("field 0 = %+v", q.Fields[0])
	}
	if q.Fields[1].Name != "price" || q.Fields[1].Temporal != wql.TemporalValueAgo || q.Fields[1].Days != 7 {
		t.Errorf("field 1 = %+v", q.Fields[1])
	}
	if q.Fields[2].Name != "price" || q.Fields[2].Temporal != wql.TemporalTrend {
		t.Errorf("field 2 = %+v", q.Fields[2])
	}
	if q.Fields[3].Name != "price" || q.Fields[3].Temporal != wql.TemporalPredicted || q.Fields[3].Days != 30 {
		t.Errorf("field 3 = %+v", q.Fields[3])
	}
	if q.Fields[4].Name != "price" || q.Fields[4].Temporal != wql.TemporalBestHistoric {
		t.Errorf("field 4 = %+v", q.Fields[4])
	}
}

func TestParseJoinAcrossOrderBy(t *testing.T) {
	q, err := wql.Parse("SELECT * FROM Product JOIN ProductListing ON Product.category = ProductListing.node_id ACROSS amazon.com, bestbuy.com ORDER BY price ASC, rating DESC")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(q.Joins) != 1 || q.Joins[0].Model != "ProductListing" {
		t.Fatalf("unexpected joins: %+v", q.Joins)
	}
	if len(q.Across) != 2 || q.Across[0] != "amazon.com" || q.Across[1] != "bestbuy.com" {
		t.Fatalf("unexpected across: %+v", q.Across)
	}
	if len(q.OrderBy) != 2 || q.OrderBy[0].Ascending != true || q.OrderBy[1].Ascending != false {
		t.Fatalf("unexpected order by: %+v", q.OrderBy)
	}
}

func TestParseMalformedQueriesAllFailWithoutPanic(t *testing.T) {
	cases := []string{
		"",
		"SELECT",
		"FROM Product",
		"SELECT name FROM LIMIT",
		"SELECT FROM",
		"SELECT name FROM Product WHERE",
		"SELECT name FROM Product ORDER BY",
	}
	for _, src := range cases {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Parse(%q) panicked: %v", src, r)
				}
			}()
			_, err := wql.Parse(src)
			if err == nil {
				t.Errorf("Parse(%q) = nil error, want a parse error", src)
			}
		}()
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := wql.Parse("SELECT name FROM Product WHERE price ? 10")
	if err == nil {
		t.Fatal("expected an error for an unknown operator character")
	}
	pe, ok := err.(*wql.ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *wql.ParseError", err)
	}
	if pe.Pos == 0 {
		t.Error("expected a non-zero error position")
	}
}
