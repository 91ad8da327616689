package compiler

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/webcortex/sitemap-engine/internal/core/observability"
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// maxExampleValues bounds how many distinct sample renderings a field
// keeps (§4.9 step 6).
const maxExampleValues = 5

// maxExampleURLs bounds how many URLs a DataModel keeps as examples.
const maxExampleURLs = 5

// Compile runs the full schema inference pipeline (§4.9) over m, grouping
// nodes into typed models, discovering fields and actions, and inferring
// inter-model relationships.
func Compile(m *sitemap.SiteMap, log *zerolog.Logger) *CompiledSchema {
	start := time.Now()

	groups := groupByType(m)
	nodeModel := make([]string, m.NodeCount())

	var models []DataModel
	for schemaType, indices := range groups {
		if len(indices) < minInstances && !singletonTypes[schemaType] {
			continue
		}
		model := buildModel(m, schemaType, indices)
		for _, i := range indices {
			nodeModel[i] = model.Name
		}
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].InstanceCount != models[j].InstanceCount {
			return models[i].InstanceCount > models[j].InstanceCount
		}
		return models[i].Name < models[j].Name
	})

	actions := compileActions(m, nodeModel, models)
	relationships := buildRelationships(m, nodeModel)

	schema := &CompiledSchema{
		Domain:        m.Header.Domain,
		CompiledAt:    time.Now().UTC(),
		Models:        models,
		Actions:       actions,
		Relationships: relationships,
	}
	schema.Stats = computeStats(schema)

	if log != nil {
		log.Debug().
			Str("domain", schema.Domain).
			Int("models", len(models)).
			Int("actions", len(actions)).
			Dur("elapsed", time.Since(start)).
			Msg("schema compiled")
	}
	observability.ObserveSchemaCompile(m.Header.Domain, time.Since(start), nil)
	return schema
}

// groupByType implements §4.9 step 1: every node whose page-type
// confidence clears the floor is bucketed by its Schema.org type;
// unmapped page types and low-confidence nodes are dropped.
func groupByType(m *sitemap.SiteMap) map[string][]int {
	groups := make(map[string][]int)
	for i, n := range m.Nodes {
		conf := float64(n.Confidence) / 255.0
		if conf < minGroupConfidence {
			continue
		}
		schemaType, ok := schemaOrgType(n.PageType)
		if !ok {
			continue
		}
		groups[schemaType] = append(groups[schemaType], i)
	}
	return groups
}

func buildModel(m *sitemap.SiteMap, schemaType string, indices []int) DataModel {
	model := DataModel{
		Name:          simplifiedName(schemaType),
		SchemaOrgType: schemaType,
		InstanceCount: len(indices),
	}

	for _, i := range indices {
		if len(model.ExampleURLs) < maxExampleURLs {
			model.ExampleURLs = append(model.ExampleURLs, m.URLs[i])
		}
	}

	model.Fields = append(model.Fields,
		ModelField{Name: "url", Type: FieldType{Kind: TypeURL}, Source: SourceJsonLd, Confidence: 0.95, FeatureDim: -1},
		ModelField{Name: "node_id", Type: FieldType{Kind: TypeInteger}, Source: SourceJsonLd, Confidence: 0.95, FeatureDim: -1},
		ModelField{Name: "name", Type: FieldType{Kind: TypeString}, Source: SourceJsonLd, Confidence: 0.95, FeatureDim: -1},
	)

	anyStructuredData := false
	for _, i := range indices {
		if m.Features[i][feature.HasStructuredData] > 0.5 {
			anyStructuredData = true
			break
		}
	}

	for _, spec := range fieldTables[schemaType] {
		field, ok := discoverField(m, indices, spec, anyStructuredData)
		if ok {
			model.Fields = append(model.Fields, field)
		}
	}

	if anyStructuredData {
		for _, name := range canonicalSchemaFields[schemaType] {
			model.Fields = append(model.Fields, ModelField{
				Name:       name,
				Type:       FieldType{Kind: TypeString},
				Source:     SourceJsonLd,
				Confidence: SourceJsonLd.confidence(),
				Nullable:   false,
				FeatureDim: -1,
			})
		}
	}

	if schemaType == "SearchResultsPage" || schemaType == "Cart" {
		searchName := "search"
		model.SearchAction = &searchName
	}

	return model
}

// discoverField implements §4.9 steps 3-6 for one candidate dimension:
// only instances with a non-zero value count toward discovery, the field
// is nullable iff some instances never carried the value, confidence
// averages per-occurrence source weight, and example values are the
// first maxExampleValues distinct renderings.
func discoverField(m *sitemap.SiteMap, indices []int, spec fieldSpec, structuredData bool) (ModelField, bool) {
	occurrences := 0
	seen := make(map[string]bool)
	var samples []string
	source := SourceInferred
	if structuredData {
		source = SourceDataAttribute
	}

	for _, i := range indices {
		v := m.Features[i][spec.Dim]
		if v == 0 {
			continue
		}
		occurrences++
		if len(samples) < maxExampleValues {
			s := spec.Format(v)
			if !seen[s] {
				seen[s] = true
				samples = append(samples, s)
			}
		}
	}
	if occurrences == 0 {
		return ModelField{}, false
	}

	dim := spec.Dim
	return ModelField{
		Name:       spec.Name,
		Type:       spec.Type,
		Source:     source,
		Confidence: source.confidence(),
		Nullable:   occurrences < len(indices),
		Samples:    samples,
		FeatureDim: dim,
	}, true
}

func computeStats(s *CompiledSchema) Stats {
	var st Stats
	st.TotalModels = len(s.Models)
	var confSum float64
	var confCount int
	for _, mo := range s.Models {
		st.TotalFields += len(mo.Fields)
		st.TotalInstances += mo.InstanceCount
		for _, f := range mo.Fields {
			confSum += f.Confidence
			confCount++
		}
	}
	if confCount > 0 {
		st.AverageFieldConfidence = confSum / float64(confCount)
	}
	return st
}
