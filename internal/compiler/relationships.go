package compiler

import (
	"sort"
	"strings"

	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// relGroupKey identifies one (from-model, to-model, edge-type) bucket the
// relationship inferencer aggregates edges into.
type relGroupKey struct {
	From     string
	To       string
	EdgeType string
}

type relGroup struct {
	count    int
	bySource map[int]int
}

// wellKnownRelationNames is the closed naming table §4.9 step 8 calls
// out by example; pairs not listed fall back to the generic
// belongs_to_/has_/related_ naming scheme.
var wellKnownRelationNames = map[[2]string]string{
	{"Product", "Category"}: "belongs_to_category",
	{"Product", "Product"}:  "similar_to",
}

// buildRelationships walks every edge in m whose endpoints resolve to two
// different (or, for Related edges, the same) models and aggregates them
// into ModelRelationship records with inferred cardinality and name.
// nodeModel maps a node index to the DataModel.Name it belongs to, or ""
// if the node was dropped from every model.
func buildRelationships(m *sitemap.SiteMap, nodeModel []string) []ModelRelationship {
	groups := make(map[relGroupKey]*relGroup)

	for src := 0; src < m.NodeCount(); src++ {
		fromModel := nodeModel[src]
		if fromModel == "" {
			continue
		}
		for _, e := range m.OutEdges(src) {
			tgt := int(e.TargetNode)
			if tgt < 0 || tgt >= m.NodeCount() {
				continue
			}
			toModel := nodeModel[tgt]
			if toModel == "" {
				continue
			}
			edgeTypeName := e.EdgeType.String()
			if fromModel == toModel && edgeTypeName != "related" {
				continue
			}
			key := relGroupKey{From: fromModel, To: toModel, EdgeType: edgeTypeName}
			g, ok := groups[key]
			if !ok {
				g = &relGroup{bySource: make(map[int]int)}
				groups[key] = g
			}
			g.count++
			g.bySource[src]++
		}
	}

	out := make([]ModelRelationship, 0, len(groups))
	for key, g := range groups {
		reverseKey := relGroupKey{From: key.To, To: key.From, EdgeType: key.EdgeType}
		reverse, hasReverse := groups[reverseKey]

		card := inferCardinality(key, g, reverse, hasReverse)
		out = append(out, ModelRelationship{
			FromModel:   key.From,
			ToModel:     key.To,
			EdgeType:    key.EdgeType,
			Name:        relationshipName(key.From, key.To, key.EdgeType, card),
			Cardinality: card,
			Count:       g.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FromModel != out[j].FromModel {
			return out[i].FromModel < out[j].FromModel
		}
		if out[i].ToModel != out[j].ToModel {
			return out[i].ToModel < out[j].ToModel
		}
		return out[i].EdgeType < out[j].EdgeType
	})
	return out
}

func inferCardinality(key relGroupKey, g *relGroup, reverse *relGroup, hasReverse bool) Cardinality {
	if key.From == key.To && key.EdgeType == "related" {
		return CardinalityManyToMany
	}

	meanOut, maxOut, allExactlyOne := sourceStats(g)

	if hasReverse {
		reverseMeanOut, _, _ := sourceStats(reverse)
		if reverseMeanOut > 1.0 && meanOut > 2.0 {
			return CardinalityManyToMany
		}
	}

	if meanOut <= 1.2 && maxOut <= 2 {
		return CardinalityBelongsTo
	}
	if allExactlyOne {
		return CardinalityHasOne
	}
	return CardinalityHasMany
}

func sourceStats(g *relGroup) (mean float64, max int, allExactlyOne bool) {
	if len(g.bySource) == 0 {
		return 0, 0, false
	}
	allExactlyOne = true
	total := 0
	for _, c := range g.bySource {
		total += c
		if c > max {
			max = c
		}
		if c != 1 {
			allExactlyOne = false
		}
	}
	mean = float64(total) / float64(len(g.bySource))
	return mean, max, allExactlyOne
}

func relationshipName(from, to, edgeType string, card Cardinality) string {
	if name, ok := wellKnownRelationNames[[2]string{from, to}]; ok {
		return name
	}
	snake := toSnake(to)
	switch card {
	case CardinalityBelongsTo:
		return "belongs_to_" + snake
	case CardinalityHasOne:
		return "has_" + snake
	case CardinalityManyToMany:
		return "related_" + pluralize(snake)
	default:
		return "has_" + pluralize(snake)
	}
}

func pluralize(s string) string {
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
