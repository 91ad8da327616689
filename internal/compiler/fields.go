package compiler

import (
	"fmt"
	"math"

	"github.com/webcortex/sitemap-engine/internal/feature"
)

// fieldSpec names one feature dimension's projection into a model field,
// per the closed per-page-type table §4.9 step 3 requires.
type fieldSpec struct {
	Dim      int
	Name     string
	Type     FieldType
	Format   func(v float32) string
}

func floatField(dim int, name string) fieldSpec {
	return fieldSpec{Dim: dim, Name: name, Type: FieldType{Kind: TypeFloat}, Format: fmt2Format}
}

func intField(dim int, name string) fieldSpec {
	return fieldSpec{Dim: dim, Name: name, Type: FieldType{Kind: TypeInteger}, Format: intFormat}
}

func boolField(dim int, name string) fieldSpec {
	return fieldSpec{Dim: dim, Name: name, Type: FieldType{Kind: TypeBool}, Format: boolFormat}
}

func fmt2Format(v float32) string  { return fmt.Sprintf("%.2f", v) }
func intFormat(v float32) string   { return fmt.Sprintf("%d", int(v)) }
func boolFormat(v float32) string  { return fmt.Sprintf("%t", v > 0) }
func pctFormat(v float32) string   { return fmt.Sprintf("%.0f%%", v) }
func rating1Format(v float32) string { return fmt.Sprintf("%.1f", v) }

// logCountFormat inverts §4.1's log-encoded-count convention
// (log10(1+n)/10, clamped to [0,1]) back to the integer count it
// represents, per §4.9 step 6's "10^value as integer" rule.
func logCountFormat(v float32) string {
	n := int(math.Round(math.Pow(10, float64(v)*10))) - 1
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%d", n)
}

func availabilityField(dim int) fieldSpec {
	return fieldSpec{
		Dim:  dim,
		Name: "availability",
		Type: FieldType{Kind: TypeEnum, Variants: []string{"in_stock", "out_of_stock", "preorder"}},
		Format: func(v float32) string {
			switch {
			case v >= 0.66:
				return "in_stock"
			case v >= 0.33:
				return "preorder"
			default:
				return "out_of_stock"
			}
		},
	}
}

// fieldTables is the closed per-Schema.org-type dimension discovery
// table. Only dimensions a type's instances actually carry a non-zero
// value for are surfaced (§4.9 step 3): this table just lists the
// candidates to check.
var fieldTables = map[string][]fieldSpec{
	"Product": {
		floatField(feature.Price, "price"),
		floatField(feature.DiscountPct, "discount_percent"),
		availabilityField(feature.Availability),
		{Dim: feature.Rating, Name: "rating", Type: FieldType{Kind: TypeFloat}, Format: rating1Format},
		{Dim: feature.ReviewCountLog, Name: "review_count", Type: FieldType{Kind: TypeInteger}, Format: logCountFormat},
		boolField(feature.ShippingFree, "free_shipping"),
		intField(feature.VariantCount, "variant_count"),
	},
	"ProductListing": {
		intField(feature.FilterCount, "filter_count"),
		intField(feature.SortOptions, "sort_options"),
		boolField(feature.PaginationPresent, "has_pagination"),
	},
	"Article": {
		{Dim: feature.TextLengthLog, Name: "word_count", Type: FieldType{Kind: TypeInteger}, Format: logCountFormat},
		floatField(feature.ReadingLevel, "reading_level"),
		floatField(feature.Sentiment, "sentiment"),
		intField(feature.HeadingCount, "heading_count"),
	},
	"TechArticle": {
		{Dim: feature.TextLengthLog, Name: "word_count", Type: FieldType{Kind: TypeInteger}, Format: logCountFormat},
		intField(feature.HeadingCount, "heading_count"),
		intField(feature.ListCount, "list_count"),
	},
	"Cart": {
		intField(feature.CartItemCount, "item_count"),
		floatField(feature.CartTotal, "total"),
		intField(feature.CheckoutStepsRemaining, "checkout_steps_remaining"),
	},
	"CheckoutPage": {
		intField(feature.CheckoutStepsRemaining, "steps_remaining"),
		floatField(feature.FormCompleteness, "form_completeness"),
	},
	"Account": {
		floatField(feature.FormCompleteness, "form_completeness"),
		boolField(feature.AuthRequiredRatio, "requires_auth"),
	},
	"LoginPage": {
		intField(feature.FormFieldCount, "field_count"),
	},
	"Offer": {
		floatField(feature.Price, "price"),
		floatField(feature.DiscountPct, "discount_percent"),
		floatField(feature.DealScore, "deal_score"),
	},
	"ContactPoint": {
		intField(feature.FormFieldCount, "field_count"),
	},
	"Organization": {
		floatField(feature.DomainReputation, "reputation"),
		floatField(feature.AuthorityScore, "authority_score"),
	},
	"FAQPage": {
		intField(feature.ListCount, "question_count"),
	},
	"MediaObject": {
		boolField(feature.VideoPresent, "has_video"),
		intField(feature.ImageCount, "image_count"),
	},
	"SocialMediaPosting": {
		floatField(feature.Sentiment, "sentiment"),
		boolField(feature.ShareAvailable, "shareable"),
	},
	"DiscussionForumPosting": {
		{Dim: feature.ReviewCountLog, Name: "reply_count", Type: FieldType{Kind: TypeInteger}, Format: logCountFormat},
	},
	"Event": {
		floatField(feature.ContentFreshness, "freshness"),
	},
	"SearchResultsPage": {
		intField(feature.FilterCount, "filter_count"),
	},
	"WebSite": {
		intField(feature.NavMenuItems, "nav_menu_items"),
	},
	"Dashboard": {
		intField(feature.ActionCount, "action_count"),
	},
}

// canonicalSchemaFields adds the documented Schema.org field set (§4.9
// step 3) for instances that carry structured data, beyond what the raw
// feature vector alone surfaces.
var canonicalSchemaFields = map[string][]string{
	"Product": {"brand", "category", "sku", "image_url", "description", "currency"},
	"Article": {"author", "date_published", "image_url"},
	"Event":   {"start_date", "location"},
}

// FieldDims exposes the closed per-type dimension table to external
// consumers (the WQL executor, §4.14) that need to resolve a model's
// field name back to its backing feature dimension without duplicating
// this table.
func FieldDims(schemaOrgType string) map[string]int {
	specs := fieldTables[schemaOrgType]
	out := make(map[string]int, len(specs))
	for _, s := range specs {
		out[s.Name] = s.Dim
	}
	return out
}

// FieldMeta is a field's name, backing dimension, and declared type,
// exposed for consumers that need more than FieldDims' bare dim lookup.
type FieldMeta struct {
	Name string
	Dim  int
	Type FieldType
}

// FieldSpecs exposes the closed per-type field table, typed, so the WQL
// executor can decode feature values into Row fields without duplicating
// the §4.9 step 3 table.
func FieldSpecs(schemaOrgType string) []FieldMeta {
	specs := fieldTables[schemaOrgType]
	out := make([]FieldMeta, len(specs))
	for i, s := range specs {
		out[i] = FieldMeta{Name: s.Name, Dim: s.Dim, Type: s.Type}
	}
	return out
}

// DecodeFieldString renders fieldName's display value for v using the
// same per-field Format function the compiler itself uses (§4.9 step 6),
// so every consumer of a discovered field agrees on its decoding.
func DecodeFieldString(schemaOrgType, fieldName string, v float32) (string, bool) {
	for _, s := range fieldTables[schemaOrgType] {
		if s.Name == fieldName {
			return s.Format(v), true
		}
	}
	return "", false
}
