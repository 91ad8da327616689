// Package query implements read-only traversal and retrieval operations
// over a compiled SiteMap (component C4): predicate filtering, nearest-
// neighbor lookup over the feature space, and constrained pathfinding.
package query

import (
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// Predicate reports whether node i of m matches some caller-defined
// criterion. Implementations must not mutate m.
type Predicate func(m *sitemap.SiteMap, i int) bool

// ByPageType matches nodes whose PageType is one of the given types.
func ByPageType(types ...feature.PageTypeTag) Predicate {
	set := make(map[feature.PageTypeTag]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(m *sitemap.SiteMap, i int) bool {
		_, ok := set[m.Nodes[i].PageType]
		return ok
	}
}

// ByFlag matches nodes carrying every bit in want.
func ByFlag(want feature.NodeFlags) Predicate {
	return func(m *sitemap.SiteMap, i int) bool {
		return m.Nodes[i].Flags&want == want
	}
}

// ByFeatureRange matches nodes whose feature dimension dim falls within
// [lo, hi] inclusive.
func ByFeatureRange(dim int, lo, hi float32) Predicate {
	return func(m *sitemap.SiteMap, i int) bool {
		v := m.Features[i][dim]
		return v >= lo && v <= hi
	}
}

// And combines predicates, matching only when every one does.
func And(preds ...Predicate) Predicate {
	return func(m *sitemap.SiteMap, i int) bool {
		for _, p := range preds {
			if !p(m, i) {
				return false
			}
		}
		return true
	}
}

// Or combines predicates, matching when any one does. An empty Or matches
// nothing.
func Or(preds ...Predicate) Predicate {
	return func(m *sitemap.SiteMap, i int) bool {
		for _, p := range preds {
			if p(m, i) {
				return true
			}
		}
		return false
	}
}

// Filter returns the indices of every node in m matching pred, in node
// order.
func Filter(m *sitemap.SiteMap, pred Predicate) []int {
	out := make([]int, 0)
	for i := 0; i < m.NodeCount(); i++ {
		if pred(m, i) {
			out = append(out, i)
		}
	}
	return out
}
