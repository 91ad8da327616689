// Package unifier merges schemas compiled from many domains (component
// C9's output) into one cross-site schema (component C11), grouping
// DataModels by Schema.org type and unioning their fields under a
// canonical name so a caller can query "price" across sites that call it
// "cost" or "amount".
package unifier

import (
	"sort"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// fieldAliases canonicalizes field names that mean the same thing across
// different sites' extraction heuristics, per §4.11.
var fieldAliases = map[string]string{
	"cost":      "price",
	"amount":    "price",
	"title":     "name",
	"label":     "name",
	"score":     "rating",
	"stars":     "rating",
	"image":     "image_url",
	"thumbnail": "image_url",
}

func canonicalFieldName(name string) string {
	if c, ok := fieldAliases[name]; ok {
		return c
	}
	return name
}

// UnifiedField is one field merged across every contributing domain's
// model of the same Schema.org type.
type UnifiedField struct {
	Name       string
	Type       compiler.FieldType
	PresentIn  []string // sorted, unique domains that carry this field
	Coverage   float64  // len(PresentIn) / total contributing domains
}

// UnifiedModel groups every domain's DataModel sharing a Schema.org type.
type UnifiedModel struct {
	SchemaOrgType       string
	Fields              []UnifiedField
	TotalInstanceCount  int
	ContributingDomains []string // sorted, unique
}

// SourceCoverage reports how completely one domain's model for a type
// covers the unified field set.
type SourceCoverage struct {
	Domain        string
	SchemaOrgType string
	FieldCoverage float64
}

// UnifiedSchema is the result of merging many domains' compiled schemas.
type UnifiedSchema struct {
	Models          []UnifiedModel
	SourceCoverages []SourceCoverage
}

type contributor struct {
	domain string
	model  compiler.DataModel
}

// Unify merges schemas by Schema.org type, canonicalizing field names and
// computing per-field and per-source coverage. Contributor order (and,
// within it, first-seen field type) is stable across calls given the same
// input slice order.
func Unify(schemas []compiler.CompiledSchema) UnifiedSchema {
	groups := make(map[string][]contributor)
	var typeOrder []string

	for _, s := range schemas {
		for _, m := range s.Models {
			if _, seen := groups[m.SchemaOrgType]; !seen {
				typeOrder = append(typeOrder, m.SchemaOrgType)
			}
			groups[m.SchemaOrgType] = append(groups[m.SchemaOrgType], contributor{domain: s.Domain, model: m})
		}
	}

	var models []UnifiedModel
	var coverages []SourceCoverage

	for _, schemaType := range typeOrder {
		contributors := groups[schemaType]

		domainSet := make(map[string]bool)
		for _, c := range contributors {
			domainSet[c.domain] = true
		}
		domains := sortedKeys(domainSet)
		totalDomains := len(domains)

		type fieldAgg struct {
			fieldType compiler.FieldType
			present   map[string]bool
		}
		fieldOrder := []string{}
		fields := make(map[string]*fieldAgg)

		for _, c := range contributors {
			for _, f := range c.model.Fields {
				canon := canonicalFieldName(f.Name)
				agg, ok := fields[canon]
				if !ok {
					agg = &fieldAgg{fieldType: f.Type, present: make(map[string]bool)}
					fields[canon] = agg
					fieldOrder = append(fieldOrder, canon)
				}
				agg.present[c.domain] = true
			}
		}

		var unifiedFields []UnifiedField
		for _, name := range fieldOrder {
			agg := fields[name]
			present := sortedKeys(agg.present)
			unifiedFields = append(unifiedFields, UnifiedField{
				Name:      name,
				Type:      agg.fieldType,
				PresentIn: present,
				Coverage:  float64(len(present)) / float64(totalDomains),
			})
		}
		unifiedFieldCount := len(unifiedFields)

		totalInstances := 0
		for _, c := range contributors {
			totalInstances += c.model.InstanceCount

			contributorFieldCount := len(c.model.Fields)
			cov := 0.0
			if unifiedFieldCount > 0 {
				cov = float64(contributorFieldCount) / float64(unifiedFieldCount)
			}
			coverages = append(coverages, SourceCoverage{
				Domain:        c.domain,
				SchemaOrgType: schemaType,
				FieldCoverage: cov,
			})
		}

		models = append(models, UnifiedModel{
			SchemaOrgType:       schemaType,
			Fields:              unifiedFields,
			TotalInstanceCount:  totalInstances,
			ContributingDomains: domains,
		})
	}

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].TotalInstanceCount > models[j].TotalInstanceCount
	})

	return UnifiedSchema{Models: models, SourceCoverages: coverages}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
